package yfinance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/bububa/finagents/tools"
)

// SymbolInput is the argument of the single symbol functions
type SymbolInput struct {
	// Symbol The stock symbol.
	Symbol string `json:"symbol" jsonschema:"title=symbol,description=The stock symbol e.g. MSFT." validate:"required"`
}

// HistoryInput is the argument of get_historical_stock_prices
type HistoryInput struct {
	Symbol   string `json:"symbol" jsonschema:"title=symbol,description=The stock symbol e.g. MSFT." validate:"required"`
	Period   string `json:"period,omitempty" jsonschema:"title=period,description=The period for which to retrieve historical prices. Defaults to 1mo.,enum=1d,enum=5d,enum=1mo,enum=3mo,enum=6mo,enum=1y,enum=2y,enum=5y,enum=10y,enum=ytd,enum=max" validate:"omitempty,oneof=1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max"`
	Interval string `json:"interval,omitempty" jsonschema:"title=interval,description=The interval between data points. Defaults to 1d.,enum=1d,enum=5d,enum=1wk,enum=1mo,enum=3mo" validate:"omitempty,oneof=1d 5d 1wk 1mo 3mo"`
}

// NewsInput is the argument of get_company_news
type NewsInput struct {
	Symbol     string `json:"symbol" jsonschema:"title=symbol,description=The stock symbol e.g. MSFT." validate:"required"`
	NumStories int    `json:"num_stories,omitempty" jsonschema:"title=num_stories,description=The number of news stories to return. Defaults to 3." validate:"gte=0,lte=50"`
}

// Fundamentals are the key valuation figures of a company
type Fundamentals struct {
	Symbol        string  `json:"symbol"`
	CompanyName   string  `json:"company_name"`
	Sector        string  `json:"sector"`
	Industry      string  `json:"industry"`
	MarketCap     float64 `json:"market_cap"`
	PERatio       float64 `json:"pe_ratio"`
	PBRatio       float64 `json:"pb_ratio"`
	DividendYield float64 `json:"dividend_yield"`
	EPS           float64 `json:"eps"`
	Beta          float64 `json:"beta"`
	High52Week    float64 `json:"52_week_high"`
	Low52Week     float64 `json:"52_week_low"`
}

func (f Fundamentals) String() string {
	return indent(f)
}

// CompanyInfo is the company overview
type CompanyInfo struct {
	Name                   string  `json:"Name"`
	Symbol                 string  `json:"Symbol"`
	CurrentStockPrice      string  `json:"Current Stock Price"`
	MarketCap              string  `json:"Market Cap"`
	Sector                 string  `json:"Sector"`
	Industry               string  `json:"Industry"`
	Address                string  `json:"Address"`
	City                   string  `json:"City"`
	State                  string  `json:"State"`
	Zip                    string  `json:"Zip"`
	Country                string  `json:"Country"`
	EPS                    float64 `json:"EPS"`
	PERatio                float64 `json:"P/E Ratio"`
	Low52Week              float64 `json:"52 Week Low"`
	High52Week             float64 `json:"52 Week High"`
	Average50Day           float64 `json:"50 Day Average"`
	Average200Day          float64 `json:"200 Day Average"`
	Website                string  `json:"Website"`
	Summary                string  `json:"Summary"`
	AnalystRecommendation  string  `json:"Analyst Recommendation"`
	NumberOfAnalystOpinion int64   `json:"Number Of Analyst Opinions"`
	Employees              int64   `json:"Employees"`
	TotalCash              float64 `json:"Total Cash"`
	FreeCashflow           float64 `json:"Free Cash flow"`
	OperatingCashflow      float64 `json:"Operating Cash flow"`
	EBITDA                 float64 `json:"EBITDA"`
	RevenueGrowth          float64 `json:"Revenue Growth"`
	GrossMargins           float64 `json:"Gross Margins"`
	EbitdaMargins          float64 `json:"Ebitda margins"`
}

func (c CompanyInfo) String() string {
	return indent(c)
}

// Recommendation is the analyst recommendation count of a period
type Recommendation struct {
	Period     string `json:"period"`
	StrongBuy  int64  `json:"strongBuy"`
	Buy        int64  `json:"buy"`
	Hold       int64  `json:"hold"`
	Sell       int64  `json:"sell"`
	StrongSell int64  `json:"strongSell"`
}

// Bar is one OHLCV data point
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// NewsItem is a company news story
type NewsItem struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher,omitempty"`
	Link      string `json:"link"`
	Published string `json:"published,omitempty"`
}

// List renders a list as indented JSON for the model
type List[T any] []T

func (l List[T]) String() string {
	if len(l) == 0 {
		return "[]"
	}
	return indent(l)
}

func indent(v any) string {
	bs, _ := json.MarshalIndent(v, "", "  ")
	return string(bs)
}

// num reads a number that may be wrapped in {raw, fmt}
func num(r gjson.Result) float64 {
	if r.IsObject() {
		return r.Get("raw").Float()
	}
	return r.Float()
}

func integer(r gjson.Result) int64 {
	if r.IsObject() {
		return r.Get("raw").Int()
	}
	return r.Int()
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Toolkit exposes the enabled yahoo finance functions
type Toolkit struct {
	*Client
	opts []tools.Option
}

var _ tools.Toolkit = (*Toolkit)(nil)

// New returns a yfinance Toolkit, tool options apply to every function
func New(opts []Option, toolOpts ...tools.Option) *Toolkit {
	return &Toolkit{Client: NewClient(opts...), opts: toolOpts}
}

func (t *Toolkit) Tools() []tools.Tool {
	var ret []tools.Tool
	if t.stockPrice {
		ret = append(ret, tools.NewFunction("get_current_stock_price", "Use this function to get the current stock price for a given symbol.", t.CurrentStockPrice, t.opts...))
	}
	if t.companyInfo {
		ret = append(ret, tools.NewFunction("get_company_info", "Use this function to get company information and overview for a given stock symbol.", t.CompanyInfo, t.opts...))
	}
	if t.historicalPrices {
		ret = append(ret, tools.NewFunction("get_historical_stock_prices", "Use this function to get the historical stock price for a given symbol.", t.HistoricalPrices, t.opts...))
	}
	if t.stockFundamentals {
		ret = append(ret, tools.NewFunction("get_stock_fundamentals", "Use this function to get fundamental data for a given stock symbol.", t.StockFundamentals, t.opts...))
	}
	if t.analystRecommendations {
		ret = append(ret, tools.NewFunction("get_analyst_recommendations", "Use this function to get analyst recommendations for a given stock symbol.", t.AnalystRecommendations, t.opts...))
	}
	if t.companyNews {
		ret = append(ret, tools.NewFunction("get_company_news", "Use this function to get company news and press releases for a given stock symbol.", t.CompanyNews, t.opts...))
	}
	return ret
}

// CurrentStockPrice returns the last market price formatted with 4 decimals
func (t *Toolkit) CurrentStockPrice(ctx context.Context, input *SymbolInput) (string, error) {
	symbol := normalize(input.Symbol)
	chart, err := t.Chart(ctx, symbol, "1d", "1d")
	if err != nil {
		return "", fmt.Errorf("could not fetch current price for %s: %w", symbol, err)
	}
	price := chart.Get("meta.regularMarketPrice")
	if !price.Exists() {
		return "", fmt.Errorf("could not fetch current price for %s: %w", symbol, ErrNotFound)
	}
	return fmt.Sprintf("%.4f", price.Float()), nil
}

// CompanyInfo returns the company overview
func (t *Toolkit) CompanyInfo(ctx context.Context, input *SymbolInput) (*CompanyInfo, error) {
	symbol := normalize(input.Symbol)
	r, err := t.QuoteSummary(ctx, symbol, "assetProfile", "price", "summaryDetail", "defaultKeyStatistics", "financialData")
	if err != nil {
		return nil, fmt.Errorf("could not fetch company info for %s: %w", symbol, err)
	}
	profile, price, detail, stats, fin := r.Get("assetProfile"), r.Get("price"), r.Get("summaryDetail"), r.Get("defaultKeyStatistics"), r.Get("financialData")
	currentPrice := num(fin.Get("currentPrice"))
	if currentPrice == 0 {
		currentPrice = num(price.Get("regularMarketPrice"))
	}
	return &CompanyInfo{
		Name:                   price.Get("longName").String(),
		Symbol:                 symbol,
		CurrentStockPrice:      fmt.Sprintf("%.4f %s", currentPrice, price.Get("currency").String()),
		MarketCap:              fmt.Sprintf("%.0f %s", num(price.Get("marketCap")), price.Get("currency").String()),
		Sector:                 profile.Get("sector").String(),
		Industry:               profile.Get("industry").String(),
		Address:                profile.Get("address1").String(),
		City:                   profile.Get("city").String(),
		State:                  profile.Get("state").String(),
		Zip:                    profile.Get("zip").String(),
		Country:                profile.Get("country").String(),
		EPS:                    num(stats.Get("trailingEps")),
		PERatio:                num(detail.Get("trailingPE")),
		Low52Week:              num(detail.Get("fiftyTwoWeekLow")),
		High52Week:             num(detail.Get("fiftyTwoWeekHigh")),
		Average50Day:           num(detail.Get("fiftyDayAverage")),
		Average200Day:          num(detail.Get("twoHundredDayAverage")),
		Website:                profile.Get("website").String(),
		Summary:                profile.Get("longBusinessSummary").String(),
		AnalystRecommendation:  fin.Get("recommendationKey").String(),
		NumberOfAnalystOpinion: integer(fin.Get("numberOfAnalystOpinions")),
		Employees:              integer(profile.Get("fullTimeEmployees")),
		TotalCash:              num(fin.Get("totalCash")),
		FreeCashflow:           num(fin.Get("freeCashflow")),
		OperatingCashflow:      num(fin.Get("operatingCashflow")),
		EBITDA:                 num(fin.Get("ebitda")),
		RevenueGrowth:          num(fin.Get("revenueGrowth")),
		GrossMargins:           num(fin.Get("grossMargins")),
		EbitdaMargins:          num(fin.Get("ebitdaMargins")),
	}, nil
}

// StockFundamentals returns the valuation figures
func (t *Toolkit) StockFundamentals(ctx context.Context, input *SymbolInput) (*Fundamentals, error) {
	symbol := normalize(input.Symbol)
	r, err := t.QuoteSummary(ctx, symbol, "assetProfile", "price", "summaryDetail", "defaultKeyStatistics")
	if err != nil {
		return nil, fmt.Errorf("could not fetch fundamentals for %s: %w", symbol, err)
	}
	profile, price, detail, stats := r.Get("assetProfile"), r.Get("price"), r.Get("summaryDetail"), r.Get("defaultKeyStatistics")
	return &Fundamentals{
		Symbol:        symbol,
		CompanyName:   price.Get("longName").String(),
		Sector:        profile.Get("sector").String(),
		Industry:      profile.Get("industry").String(),
		MarketCap:     num(price.Get("marketCap")),
		PERatio:       num(stats.Get("forwardPE")),
		PBRatio:       num(stats.Get("priceToBook")),
		DividendYield: num(detail.Get("dividendYield")),
		EPS:           num(stats.Get("trailingEps")),
		Beta:          num(detail.Get("beta")),
		High52Week:    num(detail.Get("fiftyTwoWeekHigh")),
		Low52Week:     num(detail.Get("fiftyTwoWeekLow")),
	}, nil
}

// AnalystRecommendations returns the recommendation trend
func (t *Toolkit) AnalystRecommendations(ctx context.Context, input *SymbolInput) (List[Recommendation], error) {
	symbol := normalize(input.Symbol)
	r, err := t.QuoteSummary(ctx, symbol, "recommendationTrend")
	if err != nil {
		return nil, fmt.Errorf("could not fetch analyst recommendations for %s: %w", symbol, err)
	}
	var ret List[Recommendation]
	r.Get("recommendationTrend.trend").ForEach(func(_, v gjson.Result) bool {
		ret = append(ret, Recommendation{
			Period:     v.Get("period").String(),
			StrongBuy:  integer(v.Get("strongBuy")),
			Buy:        integer(v.Get("buy")),
			Hold:       integer(v.Get("hold")),
			Sell:       integer(v.Get("sell")),
			StrongSell: integer(v.Get("strongSell")),
		})
		return true
	})
	return ret, nil
}

// HistoricalPrices returns daily (or interval) bars for the period
func (t *Toolkit) HistoricalPrices(ctx context.Context, input *HistoryInput) (List[Bar], error) {
	symbol := normalize(input.Symbol)
	period, interval := input.Period, input.Interval
	if period == "" {
		period = "1mo"
	}
	if interval == "" {
		interval = "1d"
	}
	chart, err := t.Chart(ctx, symbol, period, interval)
	if err != nil {
		return nil, fmt.Errorf("could not fetch historical prices for %s: %w", symbol, err)
	}
	quote := chart.Get("indicators.quote.0")
	opens, highs, lows, closes, volumes := quote.Get("open").Array(), quote.Get("high").Array(), quote.Get("low").Array(), quote.Get("close").Array(), quote.Get("volume").Array()
	layout := "2006-01-02"
	if strings.HasSuffix(interval, "m") || strings.HasSuffix(interval, "h") {
		layout = "2006-01-02 15:04"
	}
	var ret List[Bar]
	for idx, ts := range chart.Get("timestamp").Array() {
		if idx >= len(closes) || closes[idx].Type == gjson.Null {
			continue
		}
		bar := Bar{
			Date:  time.Unix(ts.Int(), 0).UTC().Format(layout),
			Close: closes[idx].Float(),
		}
		if idx < len(opens) {
			bar.Open = opens[idx].Float()
		}
		if idx < len(highs) {
			bar.High = highs[idx].Float()
		}
		if idx < len(lows) {
			bar.Low = lows[idx].Float()
		}
		if idx < len(volumes) {
			bar.Volume = volumes[idx].Int()
		}
		ret = append(ret, bar)
	}
	return ret, nil
}

// CompanyNews returns the latest stories about the symbol
func (t *Toolkit) CompanyNews(ctx context.Context, input *NewsInput) (List[NewsItem], error) {
	symbol := normalize(input.Symbol)
	n := input.NumStories
	if n <= 0 {
		n = 3
	}
	r, err := t.Search(ctx, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("could not fetch company news for %s: %w", symbol, err)
	}
	var ret List[NewsItem]
	r.Get("news").ForEach(func(_, v gjson.Result) bool {
		item := NewsItem{
			Title:     v.Get("title").String(),
			Publisher: v.Get("publisher").String(),
			Link:      v.Get("link").String(),
		}
		if ts := v.Get("providerPublishTime").Int(); ts > 0 {
			item.Published = time.Unix(ts, 0).UTC().Format(time.RFC3339)
		}
		ret = append(ret, item)
		return len(ret) < n
	})
	return ret, nil
}
