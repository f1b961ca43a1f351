// Package gate provides the capability checks used by the indicator workflow.
// A Gate is a registry of policies keyed by resource type; a HybridGate first
// checks the user's profile permissions ("resource:action") and then asks the
// resource policy, e.g. whether a validator is assigned to the value's process.
//
// The package is generic over the subject type:
//   - Gate[uint] for user ID based checks
//   - Gate[*Actor] for richer subjects
package gate

import "context"

// Gate is a policy-only authorization checkpoint.
type Gate[U comparable] struct {
	policies map[string]Policy[U]
}

// NewGate creates an empty Gate ready to register policies.
func NewGate[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds a policy for a given resource type (e.g., "indicator_value").
// Overwrites any existing policy for that type.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize returns ErrUnauthorized for a zero-value user, ErrNoPolicyDefined
// for an unknown resource type and ErrPolicyDenied when the policy refuses.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return ErrUnauthorized
	}
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	if !p.Can(ctx, user, action, resource) {
		return ErrPolicyDenied
	}
	return nil
}

// Can reports whether Authorize returns nil.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}
