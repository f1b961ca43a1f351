package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-energy-kpi/gate"
)

type mockPolicy struct {
	allowAll bool
}

func (p *mockPolicy) Can(_ context.Context, _ uint, _ gate.Action, _ any) bool {
	return p.allowAll
}

func TestGate_Authorize_NoUser(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("indicator_value", &mockPolicy{allowAll: true})

	err := g.Authorize(context.Background(), 0, gate.ActionView, "indicator_value", nil)
	if err != gate.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGate_Authorize_NoPolicy(t *testing.T) {
	g := gate.NewGate[uint]()

	err := g.Authorize(context.Background(), 1, gate.ActionView, "unknown", nil)
	if err != gate.ErrNoPolicyDefined {
		t.Errorf("expected ErrNoPolicyDefined, got %v", err)
	}
}

func TestGate_Authorize(t *testing.T) {
	tests := []struct {
		name    string
		allow   bool
		wantErr error
	}{
		{"allowed", true, nil},
		{"denied", false, gate.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gate.NewGate[uint]()
			g.Register("indicator_value", &mockPolicy{allowAll: tt.allow})
			err := g.Authorize(context.Background(), 1, gate.ActionValidate, "indicator_value", nil)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGate_PolicyFunc(t *testing.T) {
	g := gate.NewGate[uint]()
	g.Register("indicator_value", gate.PolicyFunc[uint](func(_ context.Context, user uint, action gate.Action, _ any) bool {
		return user == 7 && action == gate.ActionSubmit
	}))

	if !g.Can(context.Background(), 7, gate.ActionSubmit, "indicator_value", nil) {
		t.Error("expected user 7 to submit")
	}
	if g.Can(context.Background(), 7, gate.ActionValidate, "indicator_value", nil) {
		t.Error("expected user 7 not to validate")
	}
}

type testActor struct {
	ID        uint
	Processes []string
}

type processPolicy struct{}

func (processPolicy) Can(_ context.Context, actor *testActor, _ gate.Action, resource any) bool {
	code, ok := resource.(string)
	if !ok || actor == nil {
		return false
	}
	for _, p := range actor.Processes {
		if p == code {
			return true
		}
	}
	return false
}

func TestGate_WithCustomUserType(t *testing.T) {
	g := gate.NewGate[*testActor]()
	g.Register("indicator_value", processPolicy{})

	energy := &testActor{ID: 1, Processes: []string{"ENERGIE"}}

	if !g.Can(context.Background(), energy, gate.ActionValidate, "indicator_value", "ENERGIE") {
		t.Error("assigned actor should validate")
	}
	if g.Can(context.Background(), energy, gate.ActionValidate, "indicator_value", "EAU") {
		t.Error("unassigned process should be denied")
	}
	if err := g.Authorize(context.Background(), nil, gate.ActionView, "indicator_value", nil); err != gate.ErrUnauthorized {
		t.Errorf("nil actor should be unauthorized, got %v", err)
	}
}
