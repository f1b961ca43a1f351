package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// failLogWrites makes inserts into transition_logs fail until the returned
// func is called.
func failLogWrites(t *testing.T, gdb *gorm.DB) (restore func()) {
	t.Helper()
	const name = "test:fail_logs"
	require.NoError(t, gdb.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == "transition_logs" {
			tx.AddError(errors.New("disk full"))
		}
	}))
	return func() {
		require.NoError(t, gdb.Callback().Create().Remove(name))
	}
}

func TestWorkflowCreateAndSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contributor := f.user(t, "c@acme.test", "contributor", "Acme", ptr("Plant1"))

	v, err := f.workflow.Create(ctx, contributor, CreateValueInput{
		IndicatorCode: "E1",
		Organization:  "Acme",
		Site:          ptr("Plant1"),
		Year:          2024,
		PeriodType:    models.PeriodMonth,
		PeriodNumber:  ptr(6),
		Value:         ptr(120.0),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, v.Status)
	assert.Equal(t, "ENERGY", v.ProcessCode)
	assert.Equal(t, "kWh", v.Unit)
	assert.Equal(t, 2024, v.Year)

	submitted, err := f.workflow.Submit(ctx, contributor, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedBy)
	assert.Equal(t, contributor, *submitted.SubmittedBy)
	assert.NotNil(t, submitted.SubmittedAt)

	history, err := f.workflow.History(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusDraft, history[0].FromStatus)
	assert.Equal(t, models.StatusSubmitted, history[0].ToStatus)
	assert.Equal(t, "E1", history[0].Details["indicator_code"])
}

func TestWorkflowCreateSubmittedDirectly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contributor := f.user(t, "c@acme.test", "contributor", "Acme", nil)

	v, err := f.workflow.Create(ctx, contributor, CreateValueInput{
		IndicatorCode: "W1",
		Organization:  "Acme",
		Year:          2024,
		PeriodType:    models.PeriodYear,
		Value:         ptr(10.0),
		Submit:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, v.Status)

	history, err := f.workflow.History(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestWorkflowCreateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contributor := f.user(t, "c@acme.test", "contributor", "Acme", ptr("Plant1"))
	viewer := f.user(t, "v@acme.test", "viewer", "Acme", nil)

	base := func() CreateValueInput {
		return CreateValueInput{
			IndicatorCode: "E1",
			Organization:  "Acme",
			Site:          ptr("Plant1"),
			Year:          2024,
			PeriodType:    models.PeriodMonth,
			PeriodNumber:  ptr(3),
			Value:         ptr(1.0),
		}
	}

	tests := []struct {
		name   string
		actor  uint
		mutate func(*CreateValueInput)
		want   error
	}{
		{"missing code", contributor, func(in *CreateValueInput) { in.IndicatorCode = "" }, ErrInvalidInput},
		{"bad period type", contributor, func(in *CreateValueInput) { in.PeriodType = "week" }, ErrInvalidInput},
		{"two scope fields", contributor, func(in *CreateValueInput) { in.Filiere = ptr("X") }, ErrInvalidInput},
		{"indicator not selected", contributor, func(in *CreateValueInput) { in.IndicatorCode = "ZZ" }, ErrNotFound},
		{"unknown site", contributor, func(in *CreateValueInput) { in.Site = ptr("Nowhere") }, ErrNotFound},
		{"month out of range", contributor, func(in *CreateValueInput) { in.PeriodNumber = ptr(13) }, ErrInvalidPeriod},
		{"no period registered", contributor, func(in *CreateValueInput) { in.Year = 2030 }, ErrNotFound},
		{"other site", contributor, func(in *CreateValueInput) { in.Site = ptr("Plant2") }, ErrUnauthorized},
		{"viewer cannot create", viewer, func(*CreateValueInput) {}, ErrUnauthorized},
		{"anonymous", 0, func(*CreateValueInput) {}, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mutate(&in)
			_, err := f.workflow.Create(ctx, tt.actor, in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWorkflowCreateFilialeValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contributor := f.user(t, "c@globex.test", "contributor", "Globex", nil)

	base := CreateValueInput{
		IndicatorCode: "E1", Organization: "Globex", Year: 2024,
		PeriodType: models.PeriodMonth, PeriodNumber: ptr(5), Value: ptr(3.0),
	}

	in := base
	in.Filiere, in.Filiale = ptr("Industry"), ptr("Steel")
	v, err := f.workflow.Create(ctx, contributor, in)
	require.NoError(t, err)
	level, name := v.Owner()
	assert.Equal(t, models.LevelFiliale, level)
	assert.Equal(t, "Steel", name)
	require.NotNil(t, v.FiliereName)
	assert.Equal(t, "Industry", *v.FiliereName)

	in = base
	in.Filiere, in.Filiale = ptr("Services"), ptr("Steel")
	_, err = f.workflow.Create(ctx, contributor, in)
	assert.ErrorIs(t, err, ErrNotFound)

	in = base
	in.Filiale = ptr("Steel")
	_, err = f.workflow.Create(ctx, contributor, in)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWorkflowCreateInClosedPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contributor := f.user(t, "c@acme.test", "contributor", "Acme", nil)

	p, err := f.periods.ResolvePeriod(ctx, "Acme", 2024, models.PeriodMonth, ptr(1))
	require.NoError(t, err)
	require.NoError(t, f.periods.Close(ctx, p.ID))

	_, err = f.workflow.Create(ctx, contributor, CreateValueInput{
		IndicatorCode: "E1", Organization: "Acme", Year: 2024,
		PeriodType: models.PeriodMonth, PeriodNumber: ptr(1), Value: ptr(1.0),
	})
	assert.ErrorIs(t, err, ErrPeriodClosed)
}

func TestWorkflowValidateAndReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	validator := f.user(t, "val@acme.test", "validator", "Acme", nil, "ENERGY")

	v := f.seedValue(t, "Acme", "E1", "site:Plant1", 2024, models.PeriodMonth, ptr(6), ptr(120.0), models.StatusSubmitted)
	got, err := f.workflow.Validate(ctx, validator, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusValidated, got.Status)
	require.NotNil(t, got.ValidatedBy)
	assert.Equal(t, validator, *got.ValidatedBy)

	r := f.seedValue(t, "Acme", "E1", "site:Plant1", 2024, models.PeriodMonth, ptr(7), ptr(99.0), models.StatusSubmitted)
	got, err = f.workflow.Reject(ctx, validator, r.ID, "  meter reading looks wrong ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.Equal(t, "meter reading looks wrong", got.Comment)
}

func TestWorkflowLogFailureKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	validator := f.user(t, "val@acme.test", "validator", "Acme", nil, "ENERGY")
	v := f.seedValue(t, "Acme", "E1", "site:Plant1", 2024, models.PeriodMonth, ptr(6), ptr(120.0), models.StatusSubmitted)

	restore := failLogWrites(t, f.db)
	_, err := f.workflow.Validate(ctx, validator, v.ID)
	require.Error(t, err)

	stored, err := f.store.GetValue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, stored.Status)
	assert.Nil(t, stored.ValidatedBy)

	restore()
	got, err := f.workflow.Validate(ctx, validator, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusValidated, got.Status)
	history, err := f.workflow.History(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusValidated, history[0].ToStatus)
}

func TestWorkflowCreateSubmittedLogFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contributor := f.user(t, "c@acme.test", "contributor", "Acme", nil)

	restore := failLogWrites(t, f.db)
	defer restore()
	_, err := f.workflow.Create(ctx, contributor, CreateValueInput{
		IndicatorCode: "W1", Organization: "Acme", Year: 2024,
		PeriodType: models.PeriodYear, Value: ptr(10.0), Submit: true,
	})
	require.Error(t, err)

	values, err := f.store.GetValues(ctx, storeQueryAll("Acme"))
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestWorkflowTransitionTable(t *testing.T) {
	all := []models.ValueStatus{models.StatusDraft, models.StatusSubmitted, models.StatusValidated, models.StatusRejected}
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin@acme.test", "admin", "Acme", nil, "ENERGY")

	for _, from := range all {
		for _, to := range all {
			from, to := from, to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				v := f.seedValue(t, "Acme", "E1", "", 2024, models.PeriodMonth, ptr(2), ptr(1.0), from)
				_, err := f.workflow.Transition(ctx, admin, v.ID, to, "because")
				stored, gerr := f.store.GetValue(ctx, v.ID)
				require.NoError(t, gerr)
				if models.CanTransition(from, to) {
					require.NoError(t, err)
					assert.Equal(t, to, stored.Status)
					return
				}
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, from, stored.Status)
			})
		}
	}
}

func TestWorkflowRejectNeedsComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	validator := f.user(t, "val@acme.test", "validator", "Acme", nil, "ENERGY")
	v := f.seedValue(t, "Acme", "E1", "", 2024, models.PeriodMonth, ptr(1), ptr(5.0), models.StatusSubmitted)

	for _, comment := range []string{"", "   ", "\t\n"} {
		_, err := f.workflow.Reject(ctx, validator, v.ID, comment)
		assert.ErrorIs(t, err, ErrMissingComment)
	}
	stored, err := f.store.GetValue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, stored.Status)
	assert.Empty(t, stored.Comment)
}

// Scenario B.
func TestWorkflowUnassignedValidator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unassigned := f.user(t, "val@acme.test", "validator", "Acme", nil)
	water := f.user(t, "water@acme.test", "validator", "Acme", nil, "WATER")
	v := f.seedValue(t, "Acme", "E1", "site:Plant1", 2024, models.PeriodMonth, ptr(6), ptr(120.0), models.StatusSubmitted)

	for _, actor := range []uint{unassigned, water} {
		_, err := f.workflow.Validate(ctx, actor, v.ID)
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
	stored, err := f.store.GetValue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, stored.Status)
}

func TestWorkflowValidatorScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siteBound := f.user(t, "site@acme.test", "validator", "Acme", ptr("Plant2"), "ENERGY")
	otherOrg := f.user(t, "val@globex.test", "validator", "Globex", nil, "ENERGY")
	anyOrg := f.user(t, "central@corp.test", "validator", "", nil, "ENERGY")
	contributor := f.user(t, "c@acme.test", "contributor", "Acme", nil)

	v := f.seedValue(t, "Acme", "E1", "site:Plant1", 2024, models.PeriodMonth, ptr(6), ptr(1.0), models.StatusSubmitted)

	_, err := f.workflow.Validate(ctx, siteBound, v.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.workflow.Validate(ctx, otherOrg, v.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.workflow.Validate(ctx, contributor, v.ID)
	assert.ErrorIs(t, err, ErrUnauthorized, "contributor profile has no validate permission")

	_, err = f.workflow.Validate(ctx, anyOrg, v.ID)
	assert.NoError(t, err)
}

func TestWorkflowCheckOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unassigned := f.user(t, "val@acme.test", "validator", "Acme", nil)
	validator := f.user(t, "ok@acme.test", "validator", "Acme", nil, "ENERGY")

	validated := f.seedValue(t, "Acme", "E1", "", 2024, models.PeriodMonth, ptr(1), ptr(1.0), models.StatusValidated)
	_, err := f.workflow.Reject(ctx, unassigned, validated.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition, "table is checked before comment and capability")

	submitted := f.seedValue(t, "Acme", "E1", "", 2024, models.PeriodMonth, ptr(1), ptr(1.0), models.StatusSubmitted)
	_, err = f.workflow.Reject(ctx, unassigned, submitted.ID, " ")
	assert.ErrorIs(t, err, ErrMissingComment, "comment is checked before capability")

	p, err := f.periods.ResolvePeriod(ctx, "Acme", 2024, models.PeriodMonth, ptr(1))
	require.NoError(t, err)
	require.NoError(t, f.periods.Close(ctx, p.ID))

	_, err = f.workflow.Validate(ctx, unassigned, submitted.ID)
	assert.ErrorIs(t, err, ErrUnauthorized, "capability is checked before period status")
	_, err = f.workflow.Validate(ctx, validator, submitted.ID)
	assert.ErrorIs(t, err, ErrPeriodClosed)

	require.NoError(t, f.periods.Reopen(ctx, p.ID))
	_, err = f.workflow.Validate(ctx, validator, submitted.ID)
	assert.NoError(t, err)
}

// Scenario C.
func TestWorkflowConcurrentValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.user(t, "v1@acme.test", "validator", "Acme", nil, "ENERGY")
	v2 := f.user(t, "v2@acme.test", "validator", "Acme", nil, "ENERGY")
	v := f.seedValue(t, "Acme", "E1", "", 2024, models.PeriodMonth, ptr(4), ptr(3.0), models.StatusSubmitted)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, actor := range []uint{v1, v2} {
		wg.Add(1)
		go func(i int, actor uint) {
			defer wg.Done()
			_, errs[i] = f.workflow.Validate(ctx, actor, v.ID)
		}(i, actor)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
	assert.Equal(t, 1, successes)

	history, err := f.workflow.History(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestWorkflowListEligible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	energy := f.user(t, "e@acme.test", "validator", "Acme", ptr("Plant1"), "ENERGY")

	ok := f.seedValue(t, "Acme", "E1", "site:Plant1", 2024, models.PeriodMonth, ptr(1), ptr(1.0), models.StatusSubmitted)
	f.seedValue(t, "Acme", "E1", "site:Plant2", 2024, models.PeriodMonth, ptr(1), ptr(1.0), models.StatusSubmitted)
	f.seedValue(t, "Acme", "W1", "site:Plant1", 2024, models.PeriodMonth, ptr(1), ptr(1.0), models.StatusSubmitted)
	f.seedValue(t, "Acme", "E1", "site:Plant1", 2024, models.PeriodMonth, ptr(2), ptr(1.0), models.StatusDraft)

	eligible, err := f.workflow.ListEligible(ctx, energy, "Acme")
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, ok.ID, eligible[0].ID)
}

func TestWorkflowUnknownValue(t *testing.T) {
	f := newFixture(t)
	_, err := f.workflow.Validate(context.Background(), 1, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.workflow.History(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
