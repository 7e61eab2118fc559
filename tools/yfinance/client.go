package yfinance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// ErrNotFound is returned when yahoo has no data for a symbol
var ErrNotFound = errors.New("yfinance: no data found")

type Config struct {
	baseURL    string
	cookieURL  string
	userAgent  string
	httpClient *http.Client

	stockPrice             bool
	analystRecommendations bool
	stockFundamentals      bool
	historicalPrices       bool
	companyInfo            bool
	companyNews            bool
}

// Client is a yahoo finance api client
type Client struct {
	Config
	crumbMtx sync.Mutex
	crumb    string
}

// NewClient returns a new Client, by default only the stock price function is enabled
func NewClient(opts ...Option) *Client {
	ret := &Client{Config: Config{stockPrice: true}}
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.baseURL == "" {
		ret.baseURL = DefaultBaseURL
	}
	if ret.cookieURL == "" {
		ret.cookieURL = DefaultCookieURL
	}
	if ret.userAgent == "" {
		ret.userAgent = DefaultUserAgent
	}
	if ret.httpClient == nil {
		jar, _ := cookiejar.New(nil)
		ret.httpClient = &http.Client{Timeout: 30 * time.Second, Jar: jar}
	}
	return ret
}

func (c *Client) do(ctx context.Context, link string) ([]byte, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json,text/plain,*/*")
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying yahoo finance: %w", err)
	}
	defer httpResp.Body.Close()
	bs, err := io.ReadAll(httpResp.Body)
	return bs, httpResp.StatusCode, err
}

// sessionCrumb fetches the cookie and crumb until it gets one. Failures return an
// empty crumb, the chart and search endpoints work without it.
func (c *Client) sessionCrumb(ctx context.Context) string {
	c.crumbMtx.Lock()
	defer c.crumbMtx.Unlock()
	if c.crumb != "" {
		return c.crumb
	}
	if _, _, err := c.do(ctx, c.cookieURL); err != nil {
		return ""
	}
	bs, status, err := c.do(ctx, c.baseURL+"/v1/test/getcrumb")
	if err != nil || status != http.StatusOK {
		return ""
	}
	if crumb := strings.TrimSpace(string(bs)); crumb != "" && !strings.ContainsAny(crumb, "<{") {
		c.crumb = crumb
	}
	return c.crumb
}

// get queries an api path and returns the result object found at root
func (c *Client) get(ctx context.Context, path string, values url.Values, root string) (gjson.Result, error) {
	link := c.baseURL + path
	if len(values) > 0 {
		link += "?" + values.Encode()
	}
	bs, status, err := c.do(ctx, link)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(bs) {
		return gjson.Result{}, fmt.Errorf("invalid response from yahoo finance: status %d", status)
	}
	doc := gjson.ParseBytes(bs)
	if root == "" {
		if status != http.StatusOK {
			return gjson.Result{}, fmt.Errorf("non-200 response from yahoo finance: %d", status)
		}
		return doc, nil
	}
	if desc := doc.Get(root + ".error.description"); desc.Exists() && desc.String() != "" {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrNotFound, desc.String())
	}
	if status != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("non-200 response from yahoo finance: %d", status)
	}
	ret := doc.Get(root + ".result.0")
	if !ret.Exists() {
		return gjson.Result{}, ErrNotFound
	}
	return ret, nil
}

// Chart returns the chart result of a symbol
func (c *Client) Chart(ctx context.Context, symbol string, period string, interval string) (gjson.Result, error) {
	values := url.Values{}
	values.Set("range", period)
	values.Set("interval", interval)
	values.Set("includePrePost", "false")
	values.Set("events", "div,splits")
	return c.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), values, "chart")
}

// QuoteSummary returns the requested quoteSummary modules of a symbol
func (c *Client) QuoteSummary(ctx context.Context, symbol string, modules ...string) (gjson.Result, error) {
	values := url.Values{}
	values.Set("modules", strings.Join(modules, ","))
	values.Set("formatted", "false")
	if crumb := c.sessionCrumb(ctx); crumb != "" {
		values.Set("crumb", crumb)
	}
	return c.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol), values, "quoteSummary")
}

// Search returns the search result for a query including news
func (c *Client) Search(ctx context.Context, query string, newsCount int) (gjson.Result, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("quotesCount", "0")
	values.Set("newsCount", fmt.Sprintf("%d", newsCount))
	return c.get(ctx, "/v1/finance/search", values, "")
}
