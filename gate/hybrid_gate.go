package gate

import (
	"context"
	"fmt"
)

// HybridGate combines profile permissions with resource policies.
// Authorization flow:
//  1. user must be non-zero
//  2. the user's profile must grant resource:action
//  3. if a policy is registered for the resource type and a resource is
//     given, the policy must accept it
type HybridGate[U comparable] struct {
	resolver ProfileResolver[U]
	policies map[string]Policy[U]
}

// NewHybridGate creates a hybrid gate with the given profile resolver.
func NewHybridGate[U comparable](resolver ProfileResolver[U]) *HybridGate[U] {
	return &HybridGate[U]{
		resolver: resolver,
		policies: make(map[string]Policy[U]),
	}
}

// Register adds a resource policy (assignment or scope checks).
func (g *HybridGate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize returns nil when allowed. Denials wrap ErrUnauthorized and say
// which step refused, so callers can log the reason.
// Resolver failures are returned as-is: they are infrastructure errors, not denials.
func (g *HybridGate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return ErrUnauthorized
	}

	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return fmt.Errorf("resolve profile: %w", err)
	}
	perm := NewPermission(resourceType, action)
	if profile == nil || !profile.HasPermission(perm) {
		return fmt.Errorf("%w (%s)", ErrMissingPermission, perm)
	}

	if resource != nil {
		if policy, ok := g.policies[resourceType]; ok {
			if !policy.Can(ctx, user, action, resource) {
				return fmt.Errorf("%w (%s)", ErrPolicyDenied, perm)
			}
		}
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *HybridGate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}

// CanProfile checks only the profile permission, without the resource policy.
// Used to filter lists before individual values are loaded.
func (g *HybridGate[U]) CanProfile(ctx context.Context, user U, action Action, resourceType string) bool {
	var zero U
	if user == zero {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return false
	}
	return profile.HasPermission(NewPermission(resourceType, action))
}
