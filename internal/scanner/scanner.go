package scanner

import (
	"fmt"
	"sort"

	"MarketNewsForecaster/internal/domain"
)

// Site captures the site-specific parsing strategy for one news source (CafeF, etc.).
type Site interface {
	Name() string
	ExtractLinks(key domain.TimelineKey, payload []byte) ([]domain.ArticleLink, error)
	Normalize(body, url string) (domain.NormalizedArticle, error)
}

// Registry keeps a mapping from site names to their implementations.
type Registry struct {
	sites map[string]Site
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sites: map[string]Site{}}
}

// Register adds or replaces a site implementation.
func (r *Registry) Register(site Site) {
	if r.sites == nil {
		r.sites = map[string]Site{}
	}
	r.sites[site.Name()] = site
}

// Resolve returns a site by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Site, error) {
	if site, ok := r.sites[name]; ok {
		return site, nil
	}
	return nil, fmt.Errorf("site %s is not registered (known: %v)", name, r.Names())
}

// Names lists registered sites in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sites))
	for name := range r.sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
