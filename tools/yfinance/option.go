package yfinance

import "net/http"

const (
	DefaultBaseURL   = "https://query2.finance.yahoo.com"
	DefaultCookieURL = "https://fc.yahoo.com"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

type Option func(*Config)

// WithBaseURL set the yahoo finance api endpoint
func WithBaseURL(u string) Option {
	return func(c *Config) {
		c.baseURL = u
	}
}

// WithCookieURL set the url visited to obtain the session cookie
func WithCookieURL(u string) Option {
	return func(c *Config) {
		c.cookieURL = u
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.userAgent = ua
	}
}

func WithHttpClient(clt *http.Client) Option {
	return func(c *Config) {
		c.httpClient = clt
	}
}

func EnableStockPrice(enabled bool) Option {
	return func(c *Config) {
		c.stockPrice = enabled
	}
}

func EnableAnalystRecommendations(enabled bool) Option {
	return func(c *Config) {
		c.analystRecommendations = enabled
	}
}

func EnableStockFundamentals(enabled bool) Option {
	return func(c *Config) {
		c.stockFundamentals = enabled
	}
}

func EnableHistoricalPrices(enabled bool) Option {
	return func(c *Config) {
		c.historicalPrices = enabled
	}
}

func EnableCompanyInfo(enabled bool) Option {
	return func(c *Config) {
		c.companyInfo = enabled
	}
}

func EnableCompanyNews(enabled bool) Option {
	return func(c *Config) {
		c.companyNews = enabled
	}
}

// EnableAll turns on every function
func EnableAll() Option {
	return func(c *Config) {
		c.stockPrice = true
		c.analystRecommendations = true
		c.stockFundamentals = true
		c.historicalPrices = true
		c.companyInfo = true
		c.companyNews = true
	}
}
