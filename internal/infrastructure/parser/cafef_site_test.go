package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketNewsForecaster/internal/config"
	"MarketNewsForecaster/internal/domain"
)

func testSiteConfig() config.SiteConfig {
	return config.SiteConfig{
		Name:            "cafef",
		Scanner:         "cafef",
		BaseURL:         "https://cafef.vn",
		TimelineURL:     "https://cafef.vn/timelinelist/18836/%d.chn",
		LinkSelector:    "h3 a",
		TitleSelector:   "h1.title",
		DateSelector:    "span.pdate",
		ContentSelector: "div.detail-content",
		Keywords:        []string{"ACB", "Á Châu"},
	}
}

const timelineFragment = `
<li><h3><a href="/acb-bao-lai-quy-3-188241009.chn">ACB báo lãi</a></h3></li>
<li><h3><a href="https://cafef.vn/thi-truong-188241008.chn">Thị trường</a></h3></li>
<li><h3><a href="#">skip</a></h3></li>
<li><h3><a>no href</a></h3></li>
`

func TestExtractLinksResolvesRelative(t *testing.T) {
	t.Parallel()

	site, err := NewCafefSite(testSiteConfig())
	require.NoError(t, err)

	links, err := site.ExtractLinks(7, []byte(timelineFragment))
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "https://cafef.vn/acb-bao-lai-quy-3-188241009.chn", links[0].URL)
	assert.Equal(t, "https://cafef.vn/thi-truong-188241008.chn", links[1].URL)
	assert.Equal(t, domain.TimelineKey(7), links[1].Key)
	assert.Equal(t, 1, links[1].Order)
}

func articlePage(date, body string) string {
	return `<html><body>
<h1 class="title">ACB công bố kết quả kinh doanh</h1>
<span class="pdate">` + date + `</span>
<div class="detail-content"><p>` + body + `</p><p>Đoạn <b>thứ hai</b>.</p></div>
</body></html>`
}

func TestNormalizeAccepted(t *testing.T) {
	t.Parallel()

	site, err := NewCafefSite(testSiteConfig())
	require.NoError(t, err)

	art, err := site.Normalize(articlePage("09-10-2024 - 08:15 AM", "Ngân hàng Á Châu tăng trưởng."), "https://cafef.vn/a.chn")
	require.NoError(t, err)
	assert.Equal(t, 2024, art.Year)
	assert.Equal(t, 10, art.Month)
	assert.Equal(t, 9, art.Day)
	assert.Equal(t, "https://cafef.vn/a.chn", art.URL)
	assert.Contains(t, art.Corpus, "ACB công bố kết quả kinh doanh")
	assert.Contains(t, art.Corpus, "Ngân hàng Á Châu tăng trưởng.")
	assert.NotContains(t, art.Corpus, "<p>")
}

func TestNormalizeNoDate(t *testing.T) {
	t.Parallel()

	site, err := NewCafefSite(testSiteConfig())
	require.NoError(t, err)

	_, err = site.Normalize(articlePage("hôm nay", "ACB"), "https://cafef.vn/b.chn")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDateExtraction))

	_, err = site.Normalize(articlePage("31-02-2024", "ACB"), "https://cafef.vn/c.chn")
	assert.True(t, errors.Is(err, domain.ErrDateExtraction))
}

func TestNormalizeKeywordFilter(t *testing.T) {
	t.Parallel()

	cfg := testSiteConfig()
	cfg.Keywords = []string{"VCB"}
	site, err := NewCafefSite(cfg)
	require.NoError(t, err)

	_, err = site.Normalize(articlePage("09-10-2024", "Không liên quan."), "https://cafef.vn/d.chn")
	assert.True(t, errors.Is(err, domain.ErrFilteredOut))

	cfg.Keywords = []string{"vcb"}
	site, err = NewCafefSite(cfg)
	require.NoError(t, err)
	_, err = site.Normalize(articlePage("09-10-2024", "Cổ phiếu VCB tăng."), "https://cafef.vn/e.chn")
	assert.NoError(t, err, "keyword match is case-insensitive")

	cfg.Keywords = nil
	site, err = NewCafefSite(cfg)
	require.NoError(t, err)
	_, err = site.Normalize(articlePage("09-10-2024", "Bất kỳ."), "https://cafef.vn/f.chn")
	assert.NoError(t, err, "no keywords accepts everything")
}

func TestNormalizeDateFallsBackToBody(t *testing.T) {
	t.Parallel()

	cfg := testSiteConfig()
	cfg.DateSelector = "time.missing"
	site, err := NewCafefSite(cfg)
	require.NoError(t, err)

	art, err := site.Normalize(articlePage("01/03/2023", "ACB"), "https://cafef.vn/g.chn")
	require.NoError(t, err)
	assert.Equal(t, 2023, art.Year)
	assert.Equal(t, 3, art.Month)
	assert.Equal(t, 1, art.Day)
}

func TestStrategySourceResolvesConfiguredScanner(t *testing.T) {
	t.Parallel()

	cfg := testSiteConfig()
	reg, err := DefaultRegistry(cfg)
	require.NoError(t, err)

	src, err := NewStrategySource(reg, cfg, nil)
	require.NoError(t, err)
	links, err := src.ExtractLinks(1, []byte(timelineFragment))
	require.NoError(t, err)
	assert.Len(t, links, 2)

	cfg.Scanner = "vietstock"
	_, err = NewStrategySource(reg, cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vietstock")
}
