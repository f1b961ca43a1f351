package models

import (
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestIsComplex(t *testing.T) {
	tests := []struct {
		name     string
		filieres int
		filiales int
		want     bool
	}{
		{"flat", 0, 0, false},
		{"filieres only", 2, 0, true},
		{"filiales only", 0, 1, true},
		{"both", 1, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsComplex(tt.filieres, tt.filiales); got != tt.want {
				t.Errorf("IsComplex(%d, %d) = %v, want %v", tt.filieres, tt.filiales, got, tt.want)
			}
		})
	}

	org := &Organization{Name: "Acme", Sites: []Site{{Name: "Plant1"}}}
	if org.IsComplex() {
		t.Error("organization with only sites should be simple")
	}
}

func TestCanTransition(t *testing.T) {
	statuses := []ValueStatus{StatusDraft, StatusSubmitted, StatusValidated, StatusRejected}
	allowed := map[[2]ValueStatus]bool{
		{StatusDraft, StatusSubmitted}:     true,
		{StatusSubmitted, StatusValidated}: true,
		{StatusSubmitted, StatusRejected}:  true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]ValueStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestValueStatus(t *testing.T) {
	tests := []struct {
		status   ValueStatus
		valid    bool
		terminal bool
	}{
		{StatusDraft, true, false},
		{StatusSubmitted, true, false},
		{StatusValidated, true, true},
		{StatusRejected, true, true},
		{ValueStatus("archived"), false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestIndicatorValue_Owner(t *testing.T) {
	tests := []struct {
		name      string
		value     IndicatorValue
		wantLevel ScopeLevel
		wantName  string
	}{
		{"organization", IndicatorValue{Organization: "Acme"}, LevelOrganization, "Acme"},
		{"filiere", IndicatorValue{Organization: "Acme", FiliereName: ptr("Energie")}, LevelFiliere, "Energie"},
		{"filiale", IndicatorValue{Organization: "Acme", FiliereName: ptr("Energie"), FilialeName: ptr("Nord")}, LevelFiliale, "Nord"},
		{"site", IndicatorValue{Organization: "Acme", SiteName: ptr("Plant1")}, LevelSite, "Plant1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, name := tt.value.Owner()
			if level != tt.wantLevel || name != tt.wantName {
				t.Errorf("Owner() = %s %q, want %s %q", level, name, tt.wantLevel, tt.wantName)
			}
		})
	}
}

func TestScopeFieldsValid(t *testing.T) {
	tests := []struct {
		name                   string
		filiere, filiale, site *string
		want                   bool
	}{
		{"organization", nil, nil, nil, true},
		{"filiere", ptr("Energie"), nil, nil, true},
		{"filiale with filiere", ptr("Energie"), ptr("Nord"), nil, true},
		{"filiale alone", nil, ptr("Nord"), nil, false},
		{"site", nil, nil, ptr("Plant1"), true},
		{"site with filiale", ptr("Energie"), ptr("Nord"), ptr("Plant1"), false},
		{"site with filiere", ptr("Energie"), nil, ptr("Plant1"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScopeFieldsValid(tt.filiere, tt.filiale, tt.site); got != tt.want {
				t.Errorf("ScopeFieldsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIndicatorValue_Month(t *testing.T) {
	tests := []struct {
		name  string
		value IndicatorValue
		want  int
	}{
		{"june", IndicatorValue{PeriodType: PeriodMonth, PeriodNumber: ptr(6)}, 6},
		{"q2 lands in june", IndicatorValue{PeriodType: PeriodQuarter, PeriodNumber: ptr(2)}, 6},
		{"q4 lands in december", IndicatorValue{PeriodType: PeriodQuarter, PeriodNumber: ptr(4)}, 12},
		{"yearly", IndicatorValue{PeriodType: PeriodYear}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.Month(); got != tt.want {
				t.Errorf("Month() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidatePeriodNumber(t *testing.T) {
	tests := []struct {
		name    string
		typ     PeriodType
		number  *int
		wantErr bool
	}{
		{"month ok", PeriodMonth, ptr(12), false},
		{"month 13", PeriodMonth, ptr(13), true},
		{"month nil", PeriodMonth, nil, true},
		{"quarter ok", PeriodQuarter, ptr(4), false},
		{"quarter 5", PeriodQuarter, ptr(5), true},
		{"year ok", PeriodYear, nil, false},
		{"year with number", PeriodYear, ptr(1), true},
		{"unknown", PeriodType("week"), ptr(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePeriodNumber(tt.typ, tt.number)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePeriodNumber() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPeriodBounds(t *testing.T) {
	start, end := PeriodBounds(2024, PeriodMonth, ptr(2))
	if !start.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("february 2024 = %v..%v", start, end)
	}
	start, end = PeriodBounds(2024, PeriodQuarter, ptr(3))
	if start.Month() != time.July || end.Month() != time.September || end.Day() != 30 {
		t.Errorf("q3 2024 = %v..%v", start, end)
	}
	start, end = PeriodBounds(2024, PeriodYear, nil)
	if start.YearDay() != 1 || end.Month() != time.December || end.Day() != 31 {
		t.Errorf("year 2024 = %v..%v", start, end)
	}
}

func TestPerformanceClass(t *testing.T) {
	tests := []struct {
		perf *float64
		want string
	}{
		{nil, ""},
		{ptr(120.0), "excellent"},
		{ptr(90.0), "excellent"},
		{ptr(89.99), "good"},
		{ptr(70.0), "good"},
		{ptr(69.0), "fair"},
		{ptr(50.0), "fair"},
		{ptr(49.9), "poor"},
		{ptr(-10.0), "poor"},
	}
	for _, tt := range tests {
		if got := PerformanceClass(tt.perf); got != tt.want {
			t.Errorf("PerformanceClass(%v) = %q, want %q", tt.perf, got, tt.want)
		}
	}
}

func TestIndicator_MonthlyAggregation(t *testing.T) {
	if got := (&Indicator{}).MonthlyAggregation(); got != AggregationLatest {
		t.Errorf("default aggregation = %q", got)
	}
	if got := (&Indicator{Aggregation: AggregationSum}).MonthlyAggregation(); got != AggregationSum {
		t.Errorf("sum aggregation = %q", got)
	}
	if got := (&Indicator{Aggregation: "weighted"}).MonthlyAggregation(); got != AggregationLatest {
		t.Errorf("unknown aggregation should default to latest, got %q", got)
	}
}

func TestHasComment(t *testing.T) {
	for _, c := range []string{"", " ", "\t\n"} {
		if HasComment(c) {
			t.Errorf("HasComment(%q) should be false", c)
		}
	}
	if !HasComment(" missing meter reading ") {
		t.Error("HasComment should be true for text")
	}
}
