package duckduckgo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/bububa/finagents/tools"
)

// ErrNoToken is returned when the vqd token can not be found on the search page
var ErrNoToken = errors.New("duckduckgo: vqd token not found")

var vqdRegexp = regexp.MustCompile(`vqd=["']?([0-9-]+)`)

// Input schema shared by the search and news functions
type Input struct {
	// Query The query to search for.
	Query string `json:"query" jsonschema:"title=query,description=The query to search for." validate:"required"`
	// MaxResults The maximum number of results to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"title=max_results,description=The maximum number of results to return. Defaults to 5." validate:"gte=0"`
}

// SearchResultItem represents a single search result item
type SearchResultItem struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Body  string `json:"body,omitempty"`
}

// NewsItem represents a single news result
type NewsItem struct {
	Date   string `json:"date,omitempty"`
	Title  string `json:"title"`
	Body   string `json:"body,omitempty"`
	URL    string `json:"url"`
	Image  string `json:"image,omitempty"`
	Source string `json:"source,omitempty"`
}

// Results is a list of results rendered as indented JSON for the model
type Results[T any] []T

func (r Results[T]) String() string {
	if len(r) == 0 {
		return "[]"
	}
	bs, _ := json.MarshalIndent(r, "", "  ")
	return string(bs)
}

type Config struct {
	htmlURL       string
	baseURL       string
	region        string
	userAgent     string
	maxResults    int
	httpClient    *http.Client
	disableSearch bool
	disableNews   bool
}

// Toolkit exposes duckduckgo_search and duckduckgo_news
type Toolkit struct {
	Config
	opts []tools.Option
}

var _ tools.Toolkit = (*Toolkit)(nil)

// New returns a duckduckgo Toolkit, tool options apply to every function
func New(opts []Option, toolOpts ...tools.Option) *Toolkit {
	ret := &Toolkit{opts: toolOpts}
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.htmlURL == "" {
		ret.htmlURL = DefaultHTMLURL
	}
	if ret.baseURL == "" {
		ret.baseURL = DefaultBaseURL
	}
	if ret.region == "" {
		ret.region = "us-en"
	}
	if ret.userAgent == "" {
		ret.userAgent = DefaultUserAgent
	}
	if ret.maxResults <= 0 {
		ret.maxResults = 5
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return ret
}

func (t *Toolkit) Tools() []tools.Tool {
	var ret []tools.Tool
	if !t.disableSearch {
		ret = append(ret, tools.NewFunction("duckduckgo_search", "Use this function to search DuckDuckGo for a query. Returns the result titles, links and snippets.", t.Search, t.opts...))
	}
	if !t.disableNews {
		ret = append(ret, tools.NewFunction("duckduckgo_news", "Use this function to get the latest news from DuckDuckGo for a query.", t.News, t.opts...))
	}
	return ret
}

func (t *Toolkit) limit(n int) int {
	if n <= 0 {
		return t.maxResults
	}
	return n
}

func (t *Toolkit) get(ctx context.Context, link string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set("Referer", t.baseURL+"/")
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error querying duckduckgo: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		httpResp.Body.Close()
		return nil, fmt.Errorf("non-200 response from duckduckgo: %d", httpResp.StatusCode)
	}
	return httpResp, nil
}

// Search queries the duckduckgo html endpoint
func (t *Toolkit) Search(ctx context.Context, input *Input) (Results[SearchResultItem], error) {
	values := url.Values{}
	values.Set("q", input.Query)
	values.Set("kl", t.region)
	httpResp, err := t.get(ctx, fmt.Sprintf("%s?%s", t.htmlURL, values.Encode()))
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(httpResp.Body)
	if err != nil {
		return nil, err
	}
	limit := t.limit(input.MaxResults)
	ret := make(Results[SearchResultItem], 0, limit)
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		a := s.Find(".result__a").First()
		href, _ := a.Attr("href")
		href = resolveLink(href)
		title := strings.TrimSpace(a.Text())
		if href == "" || title == "" {
			return true
		}
		ret = append(ret, SearchResultItem{
			Title: title,
			Href:  href,
			Body:  strings.TrimSpace(s.Find(".result__snippet").Text()),
		})
		return len(ret) < limit
	})
	return ret, nil
}

// resolveLink unwraps the duckduckgo redirect link
func resolveLink(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Host == "" {
		return ""
	}
	return href
}

// News queries the duckduckgo news endpoint
func (t *Toolkit) News(ctx context.Context, input *Input) (Results[NewsItem], error) {
	vqd, err := t.token(ctx, input.Query)
	if err != nil {
		return nil, err
	}
	values := url.Values{}
	values.Set("l", t.region)
	values.Set("o", "json")
	values.Set("noamp", "1")
	values.Set("q", input.Query)
	values.Set("vqd", vqd)
	values.Set("p", "-1")
	httpResp, err := t.get(ctx, fmt.Sprintf("%s/news.js?%s", t.baseURL, values.Encode()))
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	bs, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	limit := t.limit(input.MaxResults)
	ret := make(Results[NewsItem], 0, limit)
	gjson.GetBytes(bs, "results").ForEach(func(_, v gjson.Result) bool {
		item := NewsItem{
			Title:  v.Get("title").String(),
			Body:   v.Get("excerpt").String(),
			URL:    v.Get("url").String(),
			Image:  v.Get("image").String(),
			Source: v.Get("source").String(),
		}
		if ts := v.Get("date").Int(); ts > 0 {
			item.Date = time.Unix(ts, 0).UTC().Format(time.RFC3339)
		}
		if item.URL == "" {
			return true
		}
		ret = append(ret, item)
		return len(ret) < limit
	})
	return ret, nil
}

func (t *Toolkit) token(ctx context.Context, query string) (string, error) {
	values := url.Values{}
	values.Set("q", query)
	httpResp, err := t.get(ctx, fmt.Sprintf("%s/?%s", t.baseURL, values.Encode()))
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()
	bs, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", err
	}
	m := vqdRegexp.FindSubmatch(bs)
	if m == nil {
		return "", ErrNoToken
	}
	return string(m[1]), nil
}
