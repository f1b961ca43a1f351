package models

// ScopeKind is the aggregation scope chosen by the hierarchy resolver.
type ScopeKind string

const (
	ScopeOrganization ScopeKind = "organization-global"
	ScopePerFiliere   ScopeKind = "per-filiere"
	ScopePerFiliale   ScopeKind = "per-filiale"
	ScopePerSite      ScopeKind = "per-site"
)

// ScopeFilter selects which nodes a consolidation runs over.
// Filiere is set for per-filiale and per-site, Filiale only for per-site.
type ScopeFilter struct {
	Organization string    `json:"organization"`
	Kind         ScopeKind `json:"kind"`
	Filiere      string    `json:"filiere,omitempty"`
	Filiale      string    `json:"filiale,omitempty"`
}

// NodeLevel returns the level of the nodes that get one row group each.
func (s ScopeFilter) NodeLevel() ScopeLevel {
	switch s.Kind {
	case ScopePerFiliere:
		return LevelFiliere
	case ScopePerFiliale:
		return LevelFiliale
	case ScopePerSite:
		return LevelSite
	default:
		return LevelOrganization
	}
}
