package newspaper

import (
	"net/http"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

type Option func(*Config)

func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.userAgent = ua
	}
}

// WithTimeout set http timeout in seconds
func WithTimeout(timeout int) Option {
	return func(c *Config) {
		c.timeout = timeout
	}
}

// WithMaxContentLength set the maximum number of bytes read from a page
func WithMaxContentLength(l int64) Option {
	return func(c *Config) {
		c.maxContentLength = l
	}
}

// WithArticleLength truncates the article text to n characters, 0 keeps everything
func WithArticleLength(n int) Option {
	return func(c *Config) {
		c.articleLength = n
	}
}

func WithHttpClient(clt *http.Client) Option {
	return func(c *Config) {
		c.httpClient = clt
	}
}
