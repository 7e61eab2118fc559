package duckduckgo

import "net/http"

const (
	DefaultHTMLURL   = "https://html.duckduckgo.com/html/"
	DefaultBaseURL   = "https://duckduckgo.com"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

type Option func(*Config)

// WithHTMLURL set the html search endpoint
func WithHTMLURL(u string) Option {
	return func(c *Config) {
		c.htmlURL = u
	}
}

// WithBaseURL set the endpoint serving the vqd token and news.js
func WithBaseURL(u string) Option {
	return func(c *Config) {
		c.baseURL = u
	}
}

func WithMaxResults(n int) Option {
	return func(c *Config) {
		c.maxResults = n
	}
}

func WithRegion(region string) Option {
	return func(c *Config) {
		c.region = region
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

// WithSearch toggles the duckduckgo_search function
func WithSearch(enabled bool) Option {
	return func(c *Config) {
		c.disableSearch = !enabled
	}
}

// WithNews toggles the duckduckgo_news function
func WithNews(enabled bool) Option {
	return func(c *Config) {
		c.disableNews = !enabled
	}
}
