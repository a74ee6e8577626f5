package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"MarketNewsForecaster/internal/config"
	"MarketNewsForecaster/internal/domain"
	"MarketNewsForecaster/internal/scanner"
)

var (
	dateExpr  = regexp.MustCompile(`(\d{1,2})[-/](\d{1,2})[-/](\d{4})`)
	tagExpr   = regexp.MustCompile(`<[^>]*>`)
	spaceExpr = regexp.MustCompile(`[ \t]+`)
	blankExpr = regexp.MustCompile(`\n{3,}`)
)

// CafefSite parses CafeF-style timeline fragments and article pages using
// configurable CSS selectors.
type CafefSite struct {
	cfg      config.SiteConfig
	base     *url.URL
	keywords []string
}

var _ scanner.Site = (*CafefSite)(nil)

// NewCafefSite builds the site strategy from configuration.
func NewCafefSite(cfg config.SiteConfig) (*CafefSite, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %s: %w", cfg.BaseURL, err)
	}

	keywords := make([]string, 0, len(cfg.Keywords))
	for _, kw := range cfg.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}

	return &CafefSite{cfg: cfg, base: base, keywords: keywords}, nil
}

// Name identifies the strategy inside the registry.
func (c *CafefSite) Name() string {
	return "cafef"
}

// ExtractLinks returns article links in page order, resolved against the base URL.
func (c *CafefSite) ExtractLinks(key domain.TimelineKey, payload []byte) ([]domain.ArticleLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("parse timeline %d: %w", key, err)
	}

	var links []domain.ArticleLink
	doc.Find(c.cfg.LinkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		resolved, ok := c.resolve(href)
		if !ok {
			return
		}
		links = append(links, domain.ArticleLink{Key: key, URL: resolved, Order: len(links)})
	})

	return links, nil
}

func (c *CafefSite) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return c.base.ResolveReference(ref).String(), true
}

// Normalize extracts title, body text and publication date, then applies the keyword filter.
func (c *CafefSite) Normalize(body, pageURL string) (domain.NormalizedArticle, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return domain.NormalizedArticle{}, fmt.Errorf("parse article %s: %w", pageURL, err)
	}

	published, err := extractDate(doc, c.cfg.DateSelector)
	if err != nil {
		return domain.NormalizedArticle{}, fmt.Errorf("%s: %w", pageURL, err)
	}

	title := collapse(doc.Find(c.cfg.TitleSelector).First().Text())
	content := c.contentText(doc)

	corpus := strings.TrimSpace(strings.Join(nonEmpty(title, content), "\n"))
	if !c.relevant(corpus) {
		return domain.NormalizedArticle{}, fmt.Errorf("%s: %w", pageURL, domain.ErrFilteredOut)
	}

	return domain.NormalizedArticle{
		Corpus: corpus,
		Year:   published.Year(),
		Month:  int(published.Month()),
		Day:    published.Day(),
		URL:    pageURL,
	}, nil
}

func (c *CafefSite) contentText(doc *goquery.Document) string {
	node := doc.Find(c.cfg.ContentSelector).First()
	if node.Length() == 0 {
		return ""
	}

	raw, err := goquery.OuterHtml(node)
	if err != nil {
		return collapse(node.Text())
	}

	converter := md.NewConverter(c.cfg.BaseURL, true, nil)
	text, err := converter.ConvertString(raw)
	if err != nil || strings.TrimSpace(text) == "" {
		return stripTags(raw)
	}
	return tidy(text)
}

func (c *CafefSite) relevant(corpus string) bool {
	if len(c.keywords) == 0 {
		return true
	}
	lower := strings.ToLower(corpus)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// extractDate finds the first dd-mm-yyyy date inside the date node, falling
// back to the whole document text.
func extractDate(doc *goquery.Document, selector string) (time.Time, error) {
	candidates := []string{doc.Text()}
	if selector != "" {
		candidates = append([]string{doc.Find(selector).First().Text()}, candidates...)
	}

	for _, text := range candidates {
		for _, m := range dateExpr.FindAllStringSubmatch(text, -1) {
			day, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			// rejects 31-02-2024 and friends, which time.Date would normalize
			if t.Day() == day && int(t.Month()) == month && t.Year() == year {
				return t, nil
			}
		}
	}
	return time.Time{}, domain.ErrDateExtraction
}

func stripTags(raw string) string {
	return collapse(tagExpr.ReplaceAllString(raw, " "))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceExpr.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(blankExpr.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
