package policy

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-energy-kpi/auth"
	"github.com/diewo77/go-energy-kpi/gate"
	"github.com/diewo77/go-energy-kpi/httpx"
	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthGate holds the configured HybridGate with caching.
// It satisfies services.Authorizer.
type AuthGate struct {
	Gate          *gate.HybridGate[uint]
	CacheResolver *gate.CachedResolver[uint]
	Assignments   *CachedAssignmentResolver
}

// NewAuthGate creates the authorization gate for indicator values.
// - db: GORM database connection for profile and assignment lookups
// - cacheTTL: how long to cache lookups (e.g., 5*time.Minute)
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration, log logrus.FieldLogger) *AuthGate {
	cachedResolver := gate.NewCachedResolver[uint](NewDBProfileResolver(db), cacheTTL)
	assignments := NewCachedAssignmentResolver(NewDBAssignmentResolver(db), cacheTTL)

	hybridGate := gate.NewHybridGate[uint](cachedResolver)
	hybridGate.Register(models.ResourceIndicatorValue, NewIndicatorValuePolicy(assignments, log))

	return &AuthGate{
		Gate:          hybridGate,
		CacheResolver: cachedResolver,
		Assignments:   assignments,
	}
}

// RegisterPolicy adds a resource policy.
func (ag *AuthGate) RegisterPolicy(resourceType string, p gate.Policy[uint]) {
	ag.Gate.Register(resourceType, p)
}

// Authorize checks if user can perform an action on a resource.
func (ag *AuthGate) Authorize(ctx context.Context, user uint, action gate.Action, resourceType string, resource any) error {
	return ag.Gate.Authorize(ctx, user, action, resourceType, resource)
}

// CanProfile checks only profile permissions of the request's actor.
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.CanProfile(ctx, userID, action, resourceType)
}

// InvalidateUser clears cached lookups for a user.
// Call this when a user's profile or assignments change.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
	ag.Assignments.Invalidate(userID)
}

// InvalidateAll clears every cached lookup.
func (ag *AuthGate) InvalidateAll() {
	ag.CacheResolver.InvalidateAll()
	ag.Assignments.InvalidateAll()
}

// RequirePermission returns middleware that checks a profile permission.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.CanProfile(r.Context(), action, resourceType) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that only allows the "*:*" permission.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			profile, err := ag.CacheResolver.Resolve(r.Context(), userID)
			if err != nil || profile == nil || !profile.HasPermission(gate.PermissionSuperAdmin) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
