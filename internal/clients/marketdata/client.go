package marketdata

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// ErrNoData signals an ordinary "no data for this symbol" condition.
// Callers treat it as a skip, not a crash.
var ErrNoData = errors.New("no market data")

// Client fetches quotes, fundamentals and price history from a Yahoo-style
// chart/quoteSummary API.
type Client struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewClient creates a new market data client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; sahamflow/1.0)")

	return &Client{
		client: client,
		log:    log.With().Str("client", "marketdata").Logger(),
	}
}

// IDX tickers carry a .JK suffix on Yahoo Finance.
func yahooSymbol(symbol string) string {
	if len(symbol) <= 4 {
		return symbol + ".JK"
	}
	return symbol
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// GetQuote fetches the current price for a symbol
func (c *Client) GetQuote(symbol string) (*Quote, error) {
	var resp chartResponse
	res, err := c.client.R().
		SetResult(&resp).
		SetQueryParams(map[string]string{"range": "1d", "interval": "1d"}).
		Get("/v8/finance/chart/" + yahooSymbol(symbol))
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	if res.StatusCode() == 404 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	if res.IsError() {
		return nil, fmt.Errorf("quote request for %s returned HTTP %d", symbol, res.StatusCode())
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	meta := resp.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return nil, fmt.Errorf("%w: %s has no market price", ErrNoData, symbol)
	}

	return &Quote{
		Symbol:     symbol,
		Price:      meta.RegularMarketPrice,
		Currency:   meta.Currency,
		MarketTime: time.Unix(meta.RegularMarketTime, 0),
	}, nil
}

// CurrentPrice returns just the latest price; satisfies the tracker's
// PriceSource contract.
func (c *Client) CurrentPrice(symbol string) (float64, error) {
	quote, err := c.GetQuote(symbol)
	if err != nil {
		return 0, err
	}
	return quote.Price, nil
}

// GetHistory fetches a daily OHLCV series, e.g. rangeSpec "3mo"
func (c *Client) GetHistory(symbol, rangeSpec string) (*PriceHistory, error) {
	if rangeSpec == "" {
		rangeSpec = "3mo"
	}

	var resp chartResponse
	res, err := c.client.R().
		SetResult(&resp).
		SetQueryParams(map[string]string{"range": rangeSpec, "interval": "1d"}).
		Get("/v8/finance/chart/" + yahooSymbol(symbol))
	if err != nil {
		return nil, fmt.Errorf("history request failed: %w", err)
	}
	if res.StatusCode() == 404 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	if res.IsError() {
		return nil, fmt.Errorf("history request for %s returned HTTP %d", symbol, res.StatusCode())
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	history := &PriceHistory{Symbol: symbol}
	for i, ts := range result.Timestamp {
		// Yahoo pads series with nulls for non-trading days.
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		candle := Candle{
			Date:  time.Unix(ts, 0),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			candle.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			candle.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			candle.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			candle.Volume = *quote.Volume[i]
		}
		history.Candles = append(history.Candles, candle)
	}

	if len(history.Candles) == 0 {
		return nil, fmt.Errorf("%w: %s has no usable candles", ErrNoData, symbol)
	}

	return history, nil
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]map[string]interface{} `json:"result"`
		Error  interface{}                         `json:"error"`
	} `json:"quoteSummary"`
}

// GetFundamentals fetches fundamental metrics for a symbol
func (c *Client) GetFundamentals(symbol string) (*Fundamentals, error) {
	var resp quoteSummaryResponse
	res, err := c.client.R().
		SetResult(&resp).
		SetQueryParam("modules", "summaryDetail,financialData,defaultKeyStatistics").
		Get("/v10/finance/quoteSummary/" + yahooSymbol(symbol))
	if err != nil {
		return nil, fmt.Errorf("fundamentals request failed: %w", err)
	}
	if res.StatusCode() == 404 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fundamentals request for %s returned HTTP %d", symbol, res.StatusCode())
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	modules := resp.QuoteSummary.Result[0]

	return &Fundamentals{
		Symbol:        symbol,
		PERatio:       rawFloat(modules, "summaryDetail", "trailingPE"),
		PriceToBook:   rawFloat(modules, "defaultKeyStatistics", "priceToBook"),
		ROE:           rawFloat(modules, "financialData", "returnOnEquity"),
		DebtToEquity:  rawFloat(modules, "financialData", "debtToEquity"),
		ProfitMargin:  rawFloat(modules, "financialData", "profitMargins"),
		RevenueGrowth: rawFloat(modules, "financialData", "revenueGrowth"),
		MarketCap:     rawInt(modules, "summaryDetail", "marketCap"),
		DividendYield: rawFloat(modules, "summaryDetail", "dividendYield"),
	}, nil
}

// Yahoo wraps numbers as {"raw": 12.3, "fmt": "12.30"}.
func rawFloat(modules map[string]map[string]interface{}, module, key string) *float64 {
	m, ok := modules[module]
	if !ok {
		return nil
	}
	wrapped, ok := m[key].(map[string]interface{})
	if !ok {
		return nil
	}
	if v, ok := wrapped["raw"].(float64); ok {
		return &v
	}
	return nil
}

func rawInt(modules map[string]map[string]interface{}, module, key string) *int64 {
	if f := rawFloat(modules, module, key); f != nil {
		v := int64(*f)
		return &v
	}
	return nil
}
