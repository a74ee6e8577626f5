package parser

import (
	"fmt"
	"log/slog"

	"MarketNewsForecaster/internal/config"
	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/ports"
	"MarketNewsForecaster/internal/scanner"
)

// StrategySource exposes the registered strategy for the configured site as
// a link extractor and a normalizer.
type StrategySource struct {
	strategy scanner.Site
	site     config.SiteConfig
	logger   *slog.Logger
}

var (
	_ ports.LinkExtractor = (*StrategySource)(nil)
	_ ports.Normalizer    = (*StrategySource)(nil)
)

// NewStrategySource resolves site.Scanner in the registry.
func NewStrategySource(reg *scanner.Registry, site config.SiteConfig, log *slog.Logger) (*StrategySource, error) {
	if reg == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}
	strategy, err := reg.Resolve(site.Scanner)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", site.Name, err)
	}
	return &StrategySource{strategy: strategy, site: site, logger: log}, nil
}

// DefaultRegistry registers every built-in site strategy.
func DefaultRegistry(site config.SiteConfig) (*scanner.Registry, error) {
	cafef, err := NewCafefSite(site)
	if err != nil {
		return nil, err
	}
	reg := scanner.NewRegistry()
	reg.Register(cafef)
	return reg, nil
}

// ExtractLinks delegates to the site strategy.
func (s *StrategySource) ExtractLinks(key domain.TimelineKey, payload []byte) ([]domain.ArticleLink, error) {
	links, err := s.strategy.ExtractLinks(key, payload)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", s.site.Name, err)
	}
	s.debug("links extracted", "site", s.site.Name, "key", int(key), "count", len(links))
	return links, nil
}

// Normalize delegates to the site strategy.
func (s *StrategySource) Normalize(body, url string) (domain.NormalizedArticle, error) {
	return s.strategy.Normalize(body, url)
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
