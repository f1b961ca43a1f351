package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/diewo77/go-energy-kpi/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ConsolidationService computes consolidated indicator rows for a scope.
// It holds no state between calls; two calls with the same inputs and no
// intervening writes return identical rows.
type ConsolidationService struct {
	values       store.ValueStore
	hierarchy    store.HierarchyStore
	catalog      store.CatalogStore
	consolidated store.ConsolidatedStore
	log          logrus.FieldLogger
}

// NewConsolidationService wires the engine to its stores.
func NewConsolidationService(values store.ValueStore, hierarchy store.HierarchyStore, catalog store.CatalogStore, consolidated store.ConsolidatedStore, log logrus.FieldLogger) *ConsolidationService {
	return &ConsolidationService{
		values:       values,
		hierarchy:    hierarchy,
		catalog:      catalog,
		consolidated: consolidated,
		log:          log,
	}
}

// Consolidate returns one row per selected indicator and scope node that has
// validated data in year or year-1, or a pre-aggregated value.
func (s *ConsolidationService) Consolidate(ctx context.Context, scope models.ScopeFilter, year int) ([]models.ConsolidatedRow, error) {
	return s.consolidate(ctx, scope, year, false)
}

// ConsolidateAudit is Consolidate with submitted values included. It only
// reads and never changes a value's status.
func (s *ConsolidationService) ConsolidateAudit(ctx context.Context, scope models.ScopeFilter, year int) ([]models.ConsolidatedRow, error) {
	return s.consolidate(ctx, scope, year, true)
}

func (s *ConsolidationService) consolidate(ctx context.Context, scope models.ScopeFilter, year int, audit bool) ([]models.ConsolidatedRow, error) {
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d", ErrInvalidInput, year)
	}
	org, err := s.hierarchy.LoadOrganization(ctx, scope.Organization)
	if err != nil {
		return nil, fmt.Errorf("organization %q: %w", scope.Organization, err)
	}
	if err := CheckScope(org, scope); err != nil {
		return nil, err
	}

	indicators, err := s.catalog.ListSelectedIndicators(ctx, org.Name)
	if err != nil {
		return nil, fmt.Errorf("list indicators: %w", err)
	}
	if len(indicators) == 0 {
		return []models.ConsolidatedRow{}, nil
	}
	codes := make([]string, len(indicators))
	for i, ind := range indicators {
		codes[i] = ind.Code
	}

	current, previous, err := s.load(ctx, codes, scope, year, audit)
	if err != nil {
		return nil, err
	}
	stored, err := s.consolidated.ListConsolidatedValues(ctx, org.Name, scope.NodeLevel(), []int{year - 1, year})
	if err != nil {
		return nil, fmt.Errorf("list consolidated values: %w", err)
	}
	targets, err := s.consolidated.ListTargets(ctx, org.Name, year)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}

	rows := buildRows(org, scope, year, indicators, current, previous, stored, targets)

	s.log.WithFields(logrus.Fields{
		"organization": org.Name,
		"scope":        scope.Kind,
		"year":         year,
		"audit":        audit,
		"rows":         len(rows),
	}).Debug("consolidated")
	return rows, nil
}

// load fetches the values of year and year-1.
func (s *ConsolidationService) load(ctx context.Context, codes []string, scope models.ScopeFilter, year int, audit bool) (current, previous []models.IndicatorValue, err error) {
	if audit {
		all, err := s.values.GetValues(ctx, store.ValueQuery{
			Organization: scope.Organization,
			Codes:        codes,
			Years:        []int{year - 1, year},
			Statuses:     []models.ValueStatus{models.StatusSubmitted, models.StatusValidated},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("load values: %w", err)
		}
		for _, v := range all {
			if v.Year == year {
				current = append(current, v)
			} else {
				previous = append(previous, v)
			}
		}
		return current, previous, nil
	}

	current, err = s.values.GetValidatedValues(ctx, codes, scope, year)
	if err != nil {
		return nil, nil, fmt.Errorf("load values %d: %w", year, err)
	}
	previous, err = s.values.GetValidatedValues(ctx, codes, scope, year-1)
	if err != nil {
		return nil, nil, fmt.Errorf("load values %d: %w", year-1, err)
	}
	return current, previous, nil
}

type rowKey struct {
	code string
	node string
}

// bucket gathers the values of one (indicator, node) pair.
type bucket struct {
	current  []*models.IndicatorValue
	previous []*models.IndicatorValue
	filieres map[string]bool
	filiales map[string]bool
	sites    map[string]bool
}

func newBucket() *bucket {
	return &bucket{filieres: map[string]bool{}, filiales: map[string]bool{}, sites: map[string]bool{}}
}

// buildRows is the pure part of the engine.
func buildRows(org *models.Organization, scope models.ScopeFilter, year int, indicators []models.Indicator,
	current, previous []models.IndicatorValue, stored []models.ConsolidatedValue, targets []models.IndicatorTarget,
) []models.ConsolidatedRow {
	tree := NewTree(org)
	inScope := map[string]bool{}
	for _, n := range tree.Nodes(scope) {
		inScope[n] = true
	}
	byCode := make(map[string]*models.Indicator, len(indicators))
	for i := range indicators {
		byCode[indicators[i].Code] = &indicators[i]
	}

	buckets := map[rowKey]*bucket{}
	get := func(k rowKey) *bucket {
		b, ok := buckets[k]
		if !ok {
			b = newBucket()
			buckets[k] = b
		}
		return b
	}
	place := func(values []models.IndicatorValue, isCurrent bool) {
		for i := range values {
			v := &values[i]
			if byCode[v.IndicatorCode] == nil {
				continue
			}
			path, ok := tree.PathOf(v)
			if !ok {
				continue
			}
			node := NodeFor(scope, org.Name, path)
			if node == "" || !inScope[node] {
				continue
			}
			b := get(rowKey{v.IndicatorCode, node})
			if !isCurrent {
				b.previous = append(b.previous, v)
				continue
			}
			b.current = append(b.current, v)
			addName(b.filieres, path.Filiere)
			addName(b.filiales, path.Filiale)
			addName(b.sites, path.Site)
		}
	}
	place(current, true)
	place(previous, false)

	overrides := map[rowKey]map[int]*float64{}
	for _, cv := range stored {
		if byCode[cv.IndicatorCode] == nil || !inScope[cv.NodeName] {
			continue
		}
		if scope.Kind == models.ScopePerFiliale && cv.FiliereName != scope.Filiere {
			continue
		}
		k := rowKey{cv.IndicatorCode, cv.NodeName}
		if overrides[k] == nil {
			overrides[k] = map[int]*float64{}
		}
		overrides[k][cv.Year] = cv.Value
		get(k)
	}

	rows := make([]models.ConsolidatedRow, 0, len(buckets))
	for k, b := range buckets {
		ind := byCode[k.code]
		agg := ind.MonthlyAggregation()

		monthly, yearly := partition(b.current, agg)
		cur := currentValue(monthly, yearly)
		prevMonthly, prevYearly := partition(b.previous, agg)
		prev := currentValue(prevMonthly, prevYearly)

		if o, ok := overrides[k]; ok {
			if v, ok := o[year]; ok {
				cur = v
			}
			if v, ok := o[year-1]; ok {
				prev = v
			}
		}
		target := targetFor(targets, scope, org.Name, k)

		rows = append(rows, models.ConsolidatedRow{
			Organization:   org.Name,
			Scope:          scope.Kind,
			Level:          scope.NodeLevel(),
			NodeName:       k.node,
			FiliereNames:   sortedNames(b.filieres),
			FilialeNames:   sortedNames(b.filiales),
			SiteNames:      sortedNames(b.sites),
			Year:           year,
			IndicatorCode:  ind.Code,
			Name:           ind.Name,
			Description:    ind.Description,
			Unit:           ind.Unit,
			Type:           ind.Type,
			Formula:        ind.Formula,
			ProcessCode:    ind.ProcessCode,
			Current:        cur,
			Previous:       prev,
			Target:         target,
			VariationPct:   VariationPct(cur, prev),
			PerformancePct: PerformancePct(cur, target),
			Monthly:        monthly,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].IndicatorCode != rows[j].IndicatorCode {
			return rows[i].IndicatorCode < rows[j].IndicatorCode
		}
		return rows[i].NodeName < rows[j].NodeName
	})
	return rows
}

// partition folds values into their month slots and the whole-year slot.
// Values must be ordered oldest first. Months without a non-null value stay nil.
func partition(values []*models.IndicatorValue, agg models.Aggregation) (monthly [12]*float64, yearly *float64) {
	var slots [13][]float64
	for _, v := range values {
		if v.Value == nil {
			continue
		}
		if v.IsYearly() {
			slots[0] = append(slots[0], *v.Value)
			continue
		}
		if m := v.Month(); m >= 1 && m <= 12 {
			slots[m] = append(slots[m], *v.Value)
		}
	}
	for m := 1; m <= 12; m++ {
		monthly[m-1] = fold(slots[m], agg)
	}
	return monthly, fold(slots[0], agg)
}

// fold reduces the values of one slot. Latest takes the last value given.
func fold(values []float64, agg models.Aggregation) *float64 {
	if len(values) == 0 {
		return nil
	}
	var out float64
	switch agg {
	case models.AggregationSum, models.AggregationAverage:
		sum := decimal.Zero
		for _, v := range values {
			sum = sum.Add(decimal.NewFromFloat(v))
		}
		if agg == models.AggregationAverage {
			sum = sum.Div(decimal.NewFromInt(int64(len(values))))
		}
		out = sum.InexactFloat64()
	default:
		out = values[len(values)-1]
	}
	return &out
}

// currentValue prefers the whole-year value, then the latest non-null month.
func currentValue(monthly [12]*float64, yearly *float64) *float64 {
	if yearly != nil {
		return yearly
	}
	for m := 11; m >= 0; m-- {
		if monthly[m] != nil {
			return monthly[m]
		}
	}
	return nil
}

// targetFor finds the objective set for exactly the row's node.
func targetFor(targets []models.IndicatorTarget, scope models.ScopeFilter, orgName string, k rowKey) *float64 {
	for _, t := range targets {
		if t.IndicatorCode != k.code || t.Organization != orgName {
			continue
		}
		var match bool
		switch scope.NodeLevel() {
		case models.LevelOrganization:
			match = t.FiliereName == "" && t.FilialeName == "" && t.SiteName == ""
		case models.LevelFiliere:
			match = t.FiliereName == k.node && t.FilialeName == "" && t.SiteName == ""
		case models.LevelFiliale:
			match = t.FiliereName == scope.Filiere && t.FilialeName == k.node && t.SiteName == ""
		case models.LevelSite:
			match = t.SiteName == k.node
		}
		if match {
			return t.Value
		}
	}
	return nil
}

// VariationPct is (current-previous)/previous*100 rounded to 2 decimals.
// It is nil when either side is nil or previous is zero.
func VariationPct(current, previous *float64) *float64 {
	if current == nil || previous == nil || *previous == 0 {
		return nil
	}
	c := decimal.NewFromFloat(*current)
	p := decimal.NewFromFloat(*previous)
	return round2(c.Sub(p).Div(p).Mul(decimal.NewFromInt(100)))
}

// PerformancePct is current/target*100 rounded to 2 decimals.
// It is nil when either side is nil or target is zero.
func PerformancePct(current, target *float64) *float64 {
	if current == nil || target == nil || *target == 0 {
		return nil
	}
	c := decimal.NewFromFloat(*current)
	t := decimal.NewFromFloat(*target)
	return round2(c.Div(t).Mul(decimal.NewFromInt(100)))
}

func round2(d decimal.Decimal) *float64 {
	f := d.Round(2).InexactFloat64()
	return &f
}

func addName(set map[string]bool, name string) {
	if name != "" {
		set[name] = true
	}
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
