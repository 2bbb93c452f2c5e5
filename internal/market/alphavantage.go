package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	apperrors "papertrade/internal/errors"
)

// Cache TTLs per data kind. Quotes go stale fast; search results and daily
// series barely move intraday.
const (
	quoteCacheTTL  = time.Minute
	searchCacheTTL = 15 * time.Minute
	dailyCacheTTL  = 15 * time.Minute
)

// AlphaVantageClient is a QuoteSupplier backed by the Alpha Vantage HTTP API
// with an in-process TTL cache to stay under the provider's request quota.
type AlphaVantageClient struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	apiKey     string
	cache      *gocache.Cache
}

// NewAlphaVantageClient creates a new Alpha Vantage client.
func NewAlphaVantageClient(httpClient *http.Client, baseURL, apiKey string) *AlphaVantageClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &AlphaVantageClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cache:      gocache.New(quoteCacheTTL, 5*time.Minute),
	}
}

// globalQuoteResponse mirrors the GLOBAL_QUOTE payload. All numeric fields
// arrive as strings.
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol           string `json:"01. symbol"`
		Open             string `json:"02. open"`
		High             string `json:"03. high"`
		Low              string `json:"04. low"`
		Price            string `json:"05. price"`
		Volume           string `json:"06. volume"`
		LatestTradingDay string `json:"07. latest trading day"`
		PreviousClose    string `json:"08. previous close"`
		Change           string `json:"09. change"`
		ChangePercent    string `json:"10. change percent"`
	} `json:"Global Quote"`
	Note         string `json:"Note"`
	ErrorMessage string `json:"Error Message"`
}

type symbolSearchResponse struct {
	BestMatches []struct {
		Symbol   string `json:"1. symbol"`
		Name     string `json:"2. name"`
		Type     string `json:"3. type"`
		Region   string `json:"4. region"`
		Currency string `json:"8. currency"`
	} `json:"bestMatches"`
	Note         string `json:"Note"`
	ErrorMessage string `json:"Error Message"`
}

type dailySeriesResponse struct {
	TimeSeriesDaily map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	} `json:"Time Series (Daily)"`
	Note         string `json:"Note"`
	ErrorMessage string `json:"Error Message"`
}

// GetQuote returns the current quote for a symbol, cached for one minute.
func (c *AlphaVantageClient) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	cacheKey := "quote_" + symbol
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(*Quote), nil
	}

	var resp globalQuoteResponse
	if err := c.get(ctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}}, &resp); err != nil {
		return nil, err
	}
	if err := checkAPIError(resp.Note, resp.ErrorMessage); err != nil {
		return nil, err
	}
	if resp.GlobalQuote.Price == "" {
		return nil, apperrors.ErrQuoteUnavailable
	}

	quote := &Quote{
		Symbol:           resp.GlobalQuote.Symbol,
		Open:             parseDecimal(resp.GlobalQuote.Open),
		High:             parseDecimal(resp.GlobalQuote.High),
		Low:              parseDecimal(resp.GlobalQuote.Low),
		Price:            parseDecimal(resp.GlobalQuote.Price),
		Volume:           parseInt(resp.GlobalQuote.Volume),
		LatestTradingDay: resp.GlobalQuote.LatestTradingDay,
		PreviousClose:    parseDecimal(resp.GlobalQuote.PreviousClose),
		Change:           parseDecimal(resp.GlobalQuote.Change),
		ChangePercent:    resp.GlobalQuote.ChangePercent,
	}

	c.cache.Set(cacheKey, quote, quoteCacheTTL)
	return quote, nil
}

// Search returns symbol matches for a query, cached for fifteen minutes.
func (c *AlphaVantageClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	cacheKey := "search_" + query
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]SearchResult), nil
	}

	var resp symbolSearchResponse
	if err := c.get(ctx, url.Values{"function": {"SYMBOL_SEARCH"}, "keywords": {query}}, &resp); err != nil {
		return nil, err
	}
	if err := checkAPIError(resp.Note, resp.ErrorMessage); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.BestMatches))
	for _, m := range resp.BestMatches {
		results = append(results, SearchResult{
			Symbol:   m.Symbol,
			Name:     m.Name,
			Type:     m.Type,
			Region:   m.Region,
			Currency: m.Currency,
		})
	}

	c.cache.Set(cacheKey, results, searchCacheTTL)
	return results, nil
}

// GetDaily returns the daily OHLCV series for a symbol, newest first, cached
// for fifteen minutes.
func (c *AlphaVantageClient) GetDaily(ctx context.Context, symbol string) ([]Candle, error) {
	cacheKey := "daily_" + symbol
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]Candle), nil
	}

	var resp dailySeriesResponse
	if err := c.get(ctx, url.Values{"function": {"TIME_SERIES_DAILY"}, "symbol": {symbol}, "outputsize": {"compact"}}, &resp); err != nil {
		return nil, err
	}
	if err := checkAPIError(resp.Note, resp.ErrorMessage); err != nil {
		return nil, err
	}
	if len(resp.TimeSeriesDaily) == 0 {
		return nil, apperrors.ErrQuoteUnavailable
	}

	candles := make([]Candle, 0, len(resp.TimeSeriesDaily))
	for date, bar := range resp.TimeSeriesDaily {
		candles = append(candles, Candle{
			Date:   date,
			Open:   parseDecimal(bar.Open),
			High:   parseDecimal(bar.High),
			Low:    parseDecimal(bar.Low),
			Close:  parseDecimal(bar.Close),
			Volume: parseInt(bar.Volume),
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Date > candles[j].Date })

	c.cache.Set(cacheKey, candles, dailyCacheTTL)
	return candles, nil
}

// get performs one API call and decodes the JSON body into out.
func (c *AlphaVantageClient) get(ctx context.Context, params url.Values, out interface{}) error {
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.Wrap(apperrors.ErrQuoteUnavailable, fmt.Errorf("alpha vantage returned status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrQuoteUnavailable, err)
	}
	return nil
}

// checkAPIError maps Alpha Vantage's in-band error fields: "Note" signals the
// request quota, "Error Message" an invalid call.
func checkAPIError(note, errorMessage string) error {
	if note != "" {
		return apperrors.ErrRateLimited
	}
	if errorMessage != "" {
		return apperrors.WithMessage(apperrors.ErrQuoteUnavailable, errorMessage)
	}
	return nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
