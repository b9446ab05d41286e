package datasource

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/compval/pkg/models"
)

const yahooWebBaseURL = "https://finance.yahoo.com"

// YahooWeb implements the DataSource interface by scraping the Yahoo
// Finance quote pages. It is a fallback for when the JSON API is
// rate-limited or blocked; scraped numbers are compact ("2.5B") and
// slightly less precise than the API's raw values.
type YahooWeb struct {
	baseURL string
	cache   *Cache
	limiter *RateLimiter
}

// NewYahooWeb creates a new Yahoo Finance web-scraping data source.
func NewYahooWeb() *YahooWeb {
	return &YahooWeb{
		baseURL: yahooWebBaseURL,
		cache:   NewCache(30 * time.Minute),
		limiter: NewRateLimiter(1, time.Second), // conservative: 1 req/s
	}
}

// Name returns the data source name.
func (w *YahooWeb) Name() string { return "Yahoo Finance (web)" }

// GetCompanyMetrics scrapes the key-statistics and profile pages for a
// ticker. Statistics that cannot be parsed stay unset rather than failing
// the whole lookup.
func (w *YahooWeb) GetCompanyMetrics(ctx context.Context, ticker string) (*models.CompanyMetrics, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))

	cacheKey := "web:metrics:" + symbol
	if cached, ok := w.cache.Get(cacheKey); ok {
		return cached.(*models.CompanyMetrics), nil
	}

	m := &models.CompanyMetrics{
		Ticker: symbol,
	}

	statsDoc, err := w.fetchPage(ctx, fmt.Sprintf("%s/quote/%s/key-statistics/", w.baseURL, symbol))
	if err != nil {
		return nil, err
	}
	w.parseStatistics(statsDoc, m)

	profileDoc, err := w.fetchPage(ctx, fmt.Sprintf("%s/quote/%s/profile/", w.baseURL, symbol))
	if err != nil {
		return nil, err
	}
	w.parseProfile(profileDoc, m)

	if m.CompanyName == "" {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	w.cache.Set(cacheKey, m)
	return m, nil
}

// fetchPage downloads and parses one HTML page.
func (w *YahooWeb) fetchPage(ctx context.Context, url string) (*goquery.Document, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, _, err := doGet(ctx, url, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		if httpErr, ok := err.(*ErrHTTP); ok && httpErr.StatusCode == 404 {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, url)
		}
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, nil
}

// parseStatistics walks the label/value tables on the key-statistics page.
func (w *YahooWeb) parseStatistics(doc *goquery.Document, m *models.CompanyMetrics) {
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		label := strings.TrimSpace(row.Find("td").First().Text())
		value := strings.TrimSpace(row.Find("td").Last().Text())
		if label == "" || value == "" || label == value {
			return
		}

		switch {
		case strings.HasPrefix(label, "Market Cap"):
			m.MarketCap = parseCompactNumber(value)
		case strings.HasPrefix(label, "Shares Outstanding"):
			m.SharesOutstanding = parseCompactNumber(value)
		case strings.HasPrefix(label, "EBITDA"):
			m.Ebitda = parseCompactNumber(value)
		case strings.HasPrefix(label, "Revenue") && !strings.Contains(label, "Per Share"):
			m.Revenue = parseCompactNumber(value)
		case strings.HasPrefix(label, "Net Income Avi to Common"):
			m.Earnings = parseCompactNumber(value)
		case strings.HasPrefix(label, "Previous Close") && !m.Price.IsSet():
			m.Price = parseCompactNumber(value)
		}
	})

	// The live price sits in a fin-streamer element outside the tables.
	if p, ok := doc.Find(`fin-streamer[data-field="regularMarketPrice"]`).Attr("data-value"); ok {
		if v, err := strconv.ParseFloat(p, 64); err == nil {
			m.Price = models.Some(v)
		}
	}
}

// parseProfile extracts the company name, industry, and business summary.
func (w *YahooWeb) parseProfile(doc *goquery.Document, m *models.CompanyMetrics) {
	if name := strings.TrimSpace(doc.Find("h1").First().Text()); name != "" {
		// Page titles look like "Archer-Daniels-Midland Company (ADM)".
		m.CompanyName = strings.TrimSpace(strings.TrimSuffix(name, fmt.Sprintf("(%s)", m.Ticker)))
	}

	doc.Find(`dd a[data-ylk*="industry"], span[data-test="INDUSTRY"]`).Each(func(_ int, sel *goquery.Selection) {
		if m.Industry == "" {
			m.Industry = strings.TrimSpace(sel.Text())
		}
	})

	// The business summary is the longest paragraph in the description section.
	doc.Find("section p, p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) > len(m.Description) && len(text) > 100 {
			m.Description = text
		}
	})
}

// parseCompactNumber parses Yahoo's compact display values: "2.5B",
// "850.2M", "1.2T", "12,345", "N/A". Unparseable input stays absent.
func parseCompactNumber(s string) models.Optional {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" || s == "--" || s == "-" {
		return models.None()
	}

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "T"):
		mult = 1e12
		s = strings.TrimSuffix(s, "T")
	case strings.HasSuffix(s, "B"):
		mult = 1e9
		s = strings.TrimSuffix(s, "B")
	case strings.HasSuffix(s, "M"):
		mult = 1e6
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "k"):
		mult = 1e3
		s = strings.TrimSuffix(s, "k")
	}

	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.None()
	}
	return models.Some(v * mult)
}
