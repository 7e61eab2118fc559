package newspaper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"

	"github.com/bububa/finagents/components/document"
	"github.com/bububa/finagents/tools"
)

const Name = "read_article"

var blankLinesRegexp = regexp.MustCompile(`\r?\n{2,}`)

// Input schema for the read_article function
type Input struct {
	// URL of the article to read.
	URL string `json:"url" jsonschema:"title=url,description=URL of the article to read." validate:"required,url"`
}

// Article is the extracted article
type Article struct {
	Title       string   `json:"title,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	PublishDate string   `json:"publish_date,omitempty"`
	Description string   `json:"description,omitempty"`
	SiteName    string   `json:"site_name,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	// Text main article content in markdown
	Text string `json:"text,omitempty"`
}

func (a Article) String() string {
	bs, _ := json.MarshalIndent(a, "", "  ")
	return string(bs)
}

type Config struct {
	userAgent string
	// timeout Timeout in seconds for HTTP requests
	timeout          int
	maxContentLength int64
	articleLength    int
	httpClient       *http.Client
}

// Reader downloads and extracts news articles
type Reader struct {
	Config
}

func New(opts ...Option) *Reader {
	ret := new(Reader)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.userAgent == "" {
		ret.userAgent = DefaultUserAgent
	}
	if ret.timeout == 0 {
		ret.timeout = 30
	}
	if ret.maxContentLength == 0 {
		ret.maxContentLength = 5_000_000
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{Timeout: time.Second * time.Duration(ret.timeout)}
	}
	return ret
}

// Tool returns the read_article function
func (t *Reader) Tool(opts ...tools.Option) tools.Tool {
	return tools.NewFunction(Name, "Use this function to read an article from a URL. Returns the article title, authors, publish date and text.", t.Read, opts...)
}

func (t *Reader) Tools() []tools.Tool {
	return []tools.Tool{t.Tool()}
}

// Read fetches the url and extracts the article
func (t *Reader) Read(ctx context.Context, input *Input) (*Article, error) {
	parsedURL, err := url.ParseRequestURI(input.URL)
	if err != nil {
		return nil, err
	}
	doc, err := t.fetch(ctx, input.URL)
	if err != nil {
		return nil, err
	}
	article := &Article{Domain: parsedURL.Host}
	t.extractMetadata(doc, article)
	markdown, err := htmltomarkdown.ConvertString(
		t.extractMainContent(doc),
		converter.WithDomain(fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)),
	)
	if err != nil {
		return nil, err
	}
	article.Text = truncate(cleanMarkdownContent(markdown), t.articleLength)
	return article, nil
}

func (t *Reader) fetch(ctx context.Context, link string) (*goquery.Document, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set("Accept", DefaultAccept)
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: status %d", link, httpResp.StatusCode)
	}
	bs, err := document.ReadLimited(httpResp.Body, t.maxContentLength)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", link, err)
	}
	if mt := mimetype.Detect(bs); !mt.Is("text/html") && !mt.Is("application/xhtml+xml") {
		return nil, fmt.Errorf("%s is not an article, content type %s", link, mt.String())
	}
	return goquery.NewDocumentFromReader(strings.NewReader(string(bs)))
}

func firstAttr(doc *goquery.Document, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr(attr); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// extractMetadata reads title, authors, publish date and description
func (t *Reader) extractMetadata(doc *goquery.Document, article *Article) {
	article.Title = firstAttr(doc, "content", "meta[property='og:title']", "meta[name='twitter:title']")
	if article.Title == "" {
		article.Title = strings.TrimSpace(doc.Find("head title").Text())
	}
	if article.Title == "" {
		article.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	article.Description = firstAttr(doc, "content", "meta[name='description']", "meta[property='og:description']")
	article.SiteName = firstAttr(doc, "content", "meta[property='og:site_name']")
	article.PublishDate = firstAttr(doc, "content",
		"meta[property='article:published_time']",
		"meta[name='pubdate']",
		"meta[name='publish-date']",
		"meta[itemprop='datePublished']",
	)
	if article.PublishDate == "" {
		article.PublishDate = firstAttr(doc, "datetime", "time[datetime]")
	}
	seen := make(map[string]struct{})
	addAuthor := func(name string) {
		name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "By "))
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		article.Authors = append(article.Authors, name)
	}
	doc.Find("meta[name='author'], meta[property='article:author']").Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("content")
		addAuthor(v)
	})
	doc.Find("[rel='author'], [itemprop='author'] [itemprop='name'], .byline .author").Each(func(_ int, s *goquery.Selection) {
		addAuthor(s.Text())
	})
}

// extractMainContent extracts the main content from the webpage using custom heuristics
func (t *Reader) extractMainContent(doc *goquery.Document) string {
	for _, tag := range []string{"script", "style", "noscript", "nav", "header", "footer", "aside", "form", "iframe"} {
		doc.Find(tag).Remove()
	}
	contentCandidates := []string{
		"article",
		"[itemprop='articleBody']",
		"main",
		"[role='main']",
		"#content, #main",
		".content, .main",
		"body",
	}
	for _, selector := range contentCandidates {
		sel := doc.Find(selector).First()
		if sel.Length() > 0 {
			if txt, err := sel.Html(); err == nil && strings.TrimSpace(txt) != "" {
				return txt
			}
		}
	}
	ret, _ := doc.Html()
	return ret
}

// cleanMarkdownContent removes excessive whitespace and normalizes formatting
func cleanMarkdownContent(content string) string {
	content = blankLinesRegexp.ReplaceAllString(content, "\n\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
