package policy

import (
	"context"
	"errors"
	"time"

	"github.com/diewo77/go-energy-kpi/gate"
	"github.com/diewo77/go-energy-kpi/internal/models"
	"gorm.io/gorm"
)

// Assignment is what the policy needs to know about an actor.
type Assignment struct {
	UserID       uint
	Organization string
	// Site restricts the actor to one site when set.
	Site      *string
	Processes map[string]bool
}

// HasProcess reports whether the actor validates values of the process.
func (a *Assignment) HasProcess(code string) bool { return a.Processes[code] }

// SiteAllows reports whether a value entered at site (nil = above site level)
// is within the actor's site restriction.
func (a *Assignment) SiteAllows(site *string) bool {
	if a.Site == nil {
		return true
	}
	return site != nil && *site == *a.Site
}

// AssignmentResolver returns the assignment of a user, or nil if unknown.
type AssignmentResolver interface {
	Resolve(ctx context.Context, userID uint) (*Assignment, error)
}

// DBAssignmentResolver reads users and their process assignments.
type DBAssignmentResolver struct {
	DB *gorm.DB
}

// NewDBAssignmentResolver creates a database-backed assignment resolver.
func NewDBAssignmentResolver(db *gorm.DB) *DBAssignmentResolver {
	return &DBAssignmentResolver{DB: db}
}

// Resolve loads the user with its process assignments.
func (r *DBAssignmentResolver) Resolve(ctx context.Context, userID uint) (*Assignment, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Processes").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a := &Assignment{
		UserID:       user.ID,
		Organization: user.Organization,
		Site:         user.SiteName,
		Processes:    make(map[string]bool, len(user.Processes)),
	}
	for _, p := range user.Processes {
		a.Processes[p.ProcessCode] = true
	}
	return a, nil
}

// CachedAssignmentResolver memoizes assignments like profiles are.
type CachedAssignmentResolver struct {
	inner AssignmentResolver
	cache *gate.TTLCache[uint, *Assignment]
}

// NewCachedAssignmentResolver wraps inner with a TTL cache.
func NewCachedAssignmentResolver(inner AssignmentResolver, ttl time.Duration) *CachedAssignmentResolver {
	return &CachedAssignmentResolver{inner: inner, cache: gate.NewTTLCache[uint, *Assignment](ttl)}
}

func (r *CachedAssignmentResolver) Resolve(ctx context.Context, userID uint) (*Assignment, error) {
	return r.cache.GetOrLoad(ctx, userID, r.inner.Resolve)
}

func (r *CachedAssignmentResolver) Invalidate(userID uint) { r.cache.Invalidate(userID) }
func (r *CachedAssignmentResolver) InvalidateAll()         { r.cache.InvalidateAll() }
