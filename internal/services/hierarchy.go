package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/diewo77/go-energy-kpi/internal/store"
)

// Selection is the viewer's navigation state. Empty means not selected.
type Selection struct {
	Filiere string
	Filiale string
}

// ResolveScope picks the aggregation scope for an organization and selection.
// Simple organizations always get the organization-global scope and the
// selection is ignored.
func ResolveScope(org *models.Organization, sel Selection) (models.ScopeFilter, error) {
	scope := models.ScopeFilter{Organization: org.Name}
	if !org.IsComplex() {
		scope.Kind = models.ScopeOrganization
		return scope, nil
	}

	filiere := strings.TrimSpace(sel.Filiere)
	filiale := strings.TrimSpace(sel.Filiale)
	tree := NewTree(org)

	switch {
	case filiere == "" && filiale != "":
		return models.ScopeFilter{}, fmt.Errorf("%w: filiale %q selected without its filière", ErrInvalidSelection, filiale)
	case filiere == "":
		scope.Kind = models.ScopePerFiliere
	case filiale == "":
		if !tree.HasFiliere(filiere) {
			return models.ScopeFilter{}, fmt.Errorf("%w: filière %q", ErrNotFound, filiere)
		}
		scope.Kind = models.ScopePerFiliale
		scope.Filiere = filiere
	default:
		if !tree.HasFiliere(filiere) {
			return models.ScopeFilter{}, fmt.Errorf("%w: filière %q", ErrNotFound, filiere)
		}
		if !tree.HasFiliale(filiere, filiale) {
			return models.ScopeFilter{}, fmt.Errorf("%w: filiale %q is not under filière %q", ErrUnknownScope, filiale, filiere)
		}
		scope.Kind = models.ScopePerSite
		scope.Filiere = filiere
		scope.Filiale = filiale
	}
	return scope, nil
}

// CheckScope verifies that a scope built by a caller matches the tree.
func CheckScope(org *models.Organization, scope models.ScopeFilter) error {
	if scope.Organization != org.Name {
		return fmt.Errorf("%w: scope organization %q, loaded %q", ErrUnknownScope, scope.Organization, org.Name)
	}
	want := scope.Kind
	var sel Selection
	switch want {
	case models.ScopeOrganization:
		if org.IsComplex() {
			return fmt.Errorf("%w: %s on a complex organization", ErrUnknownScope, want)
		}
		return nil
	case models.ScopePerFiliere:
	case models.ScopePerFiliale:
		sel.Filiere = scope.Filiere
		if sel.Filiere == "" {
			return fmt.Errorf("%w: %s without filière", ErrInvalidSelection, want)
		}
	case models.ScopePerSite:
		sel.Filiere, sel.Filiale = scope.Filiere, scope.Filiale
		if sel.Filiere == "" || sel.Filiale == "" {
			return fmt.Errorf("%w: %s needs filière and filiale", ErrInvalidSelection, want)
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrUnknownScope, want)
	}
	if !org.IsComplex() {
		return fmt.Errorf("%w: %s on a simple organization", ErrUnknownScope, want)
	}
	got, err := ResolveScope(org, sel)
	if err != nil {
		return err
	}
	if got.Kind != want {
		return fmt.Errorf("%w: %s does not match selection", ErrUnknownScope, want)
	}
	return nil
}

// FilialeKey names a filiale. Filiale names are only unique within their
// filière.
type FilialeKey struct {
	Filiere string
	Name    string
}

// Tree indexes an organization's parent links. Sites resolve to their filiale
// through FilialeID.
type Tree struct {
	org         *models.Organization
	filieres    map[string]bool
	filiales    map[FilialeKey]bool
	siteFiliale map[string]FilialeKey
	filialeKeys []FilialeKey
	sites       []string
}

// NewTree builds the index. Filière and site names are unique within the
// organization.
func NewTree(org *models.Organization) *Tree {
	t := &Tree{
		org:         org,
		filieres:    make(map[string]bool, len(org.Filieres)),
		filiales:    make(map[FilialeKey]bool, len(org.Filiales)),
		siteFiliale: make(map[string]FilialeKey, len(org.Sites)),
	}
	filieresByID := make(map[uint]string, len(org.Filieres))
	filialesByID := make(map[uint]FilialeKey, len(org.Filiales))
	for _, f := range org.Filieres {
		t.filieres[f.Name] = true
		filieresByID[f.ID] = f.Name
	}
	for _, f := range org.Filiales {
		k := FilialeKey{Filiere: filieresByID[f.FiliereID], Name: f.Name}
		t.filiales[k] = true
		filialesByID[f.ID] = k
		t.filialeKeys = append(t.filialeKeys, k)
	}
	for _, s := range org.Sites {
		var k FilialeKey
		if s.FilialeID != nil {
			k = filialesByID[*s.FilialeID]
		}
		t.siteFiliale[s.Name] = k
		t.sites = append(t.sites, s.Name)
	}
	sort.Slice(t.filialeKeys, func(i, j int) bool {
		if t.filialeKeys[i].Filiere != t.filialeKeys[j].Filiere {
			return t.filialeKeys[i].Filiere < t.filialeKeys[j].Filiere
		}
		return t.filialeKeys[i].Name < t.filialeKeys[j].Name
	})
	sort.Strings(t.sites)
	return t
}

// HasFiliere reports whether name is a filière of the organization.
func (t *Tree) HasFiliere(name string) bool { return t.filieres[name] }

// HasFiliale reports whether filière owns a filiale called name.
func (t *Tree) HasFiliale(filiere, name string) bool {
	return t.filiales[FilialeKey{Filiere: filiere, Name: name}]
}

// HasSite reports whether name is a site of the organization.
func (t *Tree) HasSite(name string) bool {
	_, ok := t.siteFiliale[name]
	return ok
}

// Path lists the ancestors of a value's owning node, from the node up to the
// filière. Unknown nodes return ok=false.
type Path struct {
	Filiere string
	Filiale string
	Site    string
}

// PathOf resolves the owning node of v to its full path.
func (t *Tree) PathOf(v *models.IndicatorValue) (Path, bool) {
	level, name := v.Owner()
	switch level {
	case models.LevelSite:
		k, ok := t.siteFiliale[name]
		if !ok {
			return Path{}, false
		}
		return Path{Filiere: k.Filiere, Filiale: k.Name, Site: name}, true
	case models.LevelFiliale:
		if v.FiliereName == nil || !t.HasFiliale(*v.FiliereName, name) {
			return Path{}, false
		}
		return Path{Filiere: *v.FiliereName, Filiale: name}, true
	case models.LevelFiliere:
		if !t.filieres[name] {
			return Path{}, false
		}
		return Path{Filiere: name}, true
	default:
		return Path{}, name == t.org.Name
	}
}

// Nodes lists the node names that get a row group under scope, sorted.
// Names are unique within a scope since a scope never spans two filières at
// filiale level.
func (t *Tree) Nodes(scope models.ScopeFilter) []string {
	var nodes []string
	switch scope.Kind {
	case models.ScopeOrganization:
		nodes = []string{t.org.Name}
	case models.ScopePerFiliere:
		for name := range t.filieres {
			nodes = append(nodes, name)
		}
	case models.ScopePerFiliale:
		for _, k := range t.filialeKeys {
			if k.Filiere == scope.Filiere {
				nodes = append(nodes, k.Name)
			}
		}
	case models.ScopePerSite:
		want := FilialeKey{Filiere: scope.Filiere, Name: scope.Filiale}
		for _, name := range t.sites {
			if t.siteFiliale[name] == want {
				nodes = append(nodes, name)
			}
		}
	}
	sort.Strings(nodes)
	return nodes
}

// NodeFor returns the scope node a path folds into, or "" if the path lies
// outside the scope.
func NodeFor(scope models.ScopeFilter, orgName string, p Path) string {
	switch scope.Kind {
	case models.ScopeOrganization:
		return orgName
	case models.ScopePerFiliere:
		return p.Filiere
	case models.ScopePerFiliale:
		if p.Filiere == scope.Filiere {
			return p.Filiale
		}
	case models.ScopePerSite:
		if p.Filiale == scope.Filiale && p.Filiere == scope.Filiere {
			return p.Site
		}
	}
	return ""
}

// HierarchyService resolves scopes for stored organizations.
type HierarchyService struct {
	store store.HierarchyStore
}

// NewHierarchyService creates a hierarchy service.
func NewHierarchyService(s store.HierarchyStore) *HierarchyService {
	return &HierarchyService{store: s}
}

// Organization loads an organization tree.
func (s *HierarchyService) Organization(ctx context.Context, name string) (*models.Organization, error) {
	org, err := s.store.LoadOrganization(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("organization %q: %w", name, err)
	}
	return org, nil
}

// ResolveScope loads the organization and resolves the viewer's selection.
func (s *HierarchyService) ResolveScope(ctx context.Context, organization string, sel Selection) (models.ScopeFilter, error) {
	org, err := s.Organization(ctx, organization)
	if err != nil {
		return models.ScopeFilter{}, err
	}
	return ResolveScope(org, sel)
}
