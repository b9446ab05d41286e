package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/seenimoa/compval/pkg/models"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// quoteSummary modules that together cover every CompanyMetrics field.
const yahooModules = "assetProfile,price,summaryDetail,financialData,defaultKeyStatistics"

// Yahoo implements the DataSource interface using the Yahoo Finance
// v10 quoteSummary API.
type Yahoo struct {
	baseURL string
	cache   *Cache
	limiter *RateLimiter
}

// NewYahoo creates a new Yahoo Finance data source.
func NewYahoo() *Yahoo {
	return &Yahoo{
		baseURL: yahooBaseURL,
		cache:   NewCache(5 * time.Minute),
		limiter: NewRateLimiter(5, time.Second), // 5 req/s
	}
}

// Name returns the data source name.
func (y *Yahoo) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance v10 API types ---

type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []yfQuoteSummaryResult `json:"result"`
		Error  *yfError               `json:"error"`
	} `json:"quoteSummary"`
}

type yfQuoteSummaryResult struct {
	AssetProfile         *yfAssetProfile         `json:"assetProfile"`
	Price                *yfPrice                `json:"price"`
	SummaryDetail        *yfSummaryDetail        `json:"summaryDetail"`
	FinancialData        *yfFinancialData        `json:"financialData"`
	DefaultKeyStatistics *yfDefaultKeyStatistics `json:"defaultKeyStatistics"`
}

type yfAssetProfile struct {
	Industry            string `json:"industry"`
	Sector              string `json:"sector"`
	LongBusinessSummary string `json:"longBusinessSummary"`
}

type yfPrice struct {
	ShortName          string `json:"shortName"`
	LongName           string `json:"longName"`
	Symbol             string `json:"symbol"`
	RegularMarketPrice yfVal  `json:"regularMarketPrice"`
	MarketCap          yfVal  `json:"marketCap"`
}

type yfSummaryDetail struct {
	MarketCap yfVal `json:"marketCap"`
}

type yfFinancialData struct {
	CurrentPrice yfVal `json:"currentPrice"`
	Ebitda       yfVal `json:"ebitda"`
	TotalRevenue yfVal `json:"totalRevenue"`
}

type yfDefaultKeyStatistics struct {
	NetIncomeToCommon yfVal `json:"netIncomeToCommon"`
	SharesOutstanding yfVal `json:"sharesOutstanding"`
}

// yfVal is Yahoo's raw/fmt value envelope. A missing key leaves Raw nil.
type yfVal struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

// optional converts a Yahoo value envelope into an Optional fundamental.
func (v yfVal) optional() models.Optional {
	if v.Raw == nil {
		return models.None()
	}
	return models.Some(*v.Raw)
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// GetCompanyMetrics fetches fundamentals and profile text from the Yahoo
// quoteSummary API. Absent response keys become unset Optionals; a response
// with no resolvable company name is ErrTickerNotFound.
func (y *Yahoo) GetCompanyMetrics(ctx context.Context, ticker string) (*models.CompanyMetrics, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))

	cacheKey := "metrics:" + symbol
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(*models.CompanyMetrics), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf(
		"%s/v10/finance/quoteSummary/%s?modules=%s",
		y.baseURL, url.PathEscape(symbol), yahooModules,
	)

	body, _, err := doGet(ctx, reqURL, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		// Yahoo answers 404 for unknown symbols.
		if httpErr, ok := err.(*ErrHTTP); ok && httpErr.StatusCode == 404 {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return nil, fmt.Errorf("yahoo quoteSummary %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfQuoteSummaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yahoo quoteSummary: %w", err)
	}

	if resp.QuoteSummary.Error != nil {
		if resp.QuoteSummary.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return nil, fmt.Errorf("yahoo API error: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	metrics := buildCompanyMetrics(symbol, resp.QuoteSummary.Result[0])
	if metrics.CompanyName == "" {
		// No descriptive record at all: treat as unresolvable.
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	y.cache.Set(cacheKey, metrics)
	return metrics, nil
}

// buildCompanyMetrics assembles CompanyMetrics from a quoteSummary result.
func buildCompanyMetrics(symbol string, r yfQuoteSummaryResult) *models.CompanyMetrics {
	m := &models.CompanyMetrics{
		Ticker: symbol,
	}

	if p := r.Price; p != nil {
		m.CompanyName = p.ShortName
		m.MarketCap = p.MarketCap.optional()
	}

	if ap := r.AssetProfile; ap != nil {
		m.Industry = ap.Industry
		m.Description = ap.LongBusinessSummary
	}

	if fd := r.FinancialData; fd != nil {
		m.Price = fd.CurrentPrice.optional()
		m.Ebitda = fd.Ebitda.optional()
		m.Revenue = fd.TotalRevenue.optional()
	}

	if ks := r.DefaultKeyStatistics; ks != nil {
		m.Earnings = ks.NetIncomeToCommon.optional()
		m.SharesOutstanding = ks.SharesOutstanding.optional()
	}

	// price.marketCap is occasionally missing while summaryDetail has it.
	if !m.MarketCap.IsSet() {
		if sd := r.SummaryDetail; sd != nil {
			m.MarketCap = sd.MarketCap.optional()
		}
	}

	return m
}
