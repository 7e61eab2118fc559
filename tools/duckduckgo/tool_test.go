package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
<div class="result results_links result--ad">
  <a class="result__a" href="https://ads.example.com">Sponsored</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fgenai-banking&amp;rut=abc">Gen AI in Banking</a></h2>
  <a class="result__snippet">Banks deploy <b>generative AI</b> for fraud detection.</a>
</div>
<div class="result results_links">
  <a class="result__a" href="https://example.org/report">Industry Report</a>
  <a class="result__snippet">Insurers adopt AI underwriting.</a>
</div>
<div class="result results_links">
  <a class="result__a" href="https://example.net/third">Third</a>
</div>
</body></html>`

func startDuckDuckGoServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/html/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			http.Error(w, "missing query", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, searchPage)
	})
	mux.HandleFunc("/news.js", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("vqd") != "4-1234567890" {
			http.Error(w, "bad token", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"results":[
			{"date":1700000000,"title":"Nvidia beats estimates","excerpt":"Data center revenue soars.","url":"https://news.example.com/nvda","image":"https://img.example.com/1.jpg","source":"Reuters"},
			{"date":1700000100,"title":"No url","excerpt":"skip"},
			{"date":1700000200,"title":"Chip rally","excerpt":"Semis up.","url":"https://news.example.com/chips","source":"Bloomberg"}
		]}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><script>vqd="4-1234567890";</script></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestToolkit(srv *httptest.Server, opts ...Option) *Toolkit {
	opts = append([]Option{WithHTMLURL(srv.URL + "/html/"), WithBaseURL(srv.URL)}, opts...)
	return New(opts)
}

func TestSearch(t *testing.T) {
	srv := startDuckDuckGoServer(t)
	kit := newTestToolkit(srv)
	ret, err := kit.Search(context.Background(), &Input{Query: "Applications of Gen AI in Financial Services", MaxResults: 2})
	require.NoError(t, err)
	require.Len(t, ret, 2)
	assert.Equal(t, "Gen AI in Banking", ret[0].Title)
	assert.Equal(t, "https://example.com/genai-banking", ret[0].Href)
	assert.Equal(t, "Banks deploy generative AI for fraud detection.", ret[0].Body)
	assert.Equal(t, "https://example.org/report", ret[1].Href)
}

func TestNews(t *testing.T) {
	srv := startDuckDuckGoServer(t)
	kit := newTestToolkit(srv, WithMaxResults(5))
	ret, err := kit.News(context.Background(), &Input{Query: "NVDA"})
	require.NoError(t, err)
	require.Len(t, ret, 2)
	assert.Equal(t, "Nvidia beats estimates", ret[0].Title)
	assert.Equal(t, "Reuters", ret[0].Source)
	assert.Equal(t, "2023-11-14T22:13:20Z", ret[0].Date)
	assert.Equal(t, "https://news.example.com/chips", ret[1].URL)
}

func TestNewsWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()
	_, err := New([]Option{WithBaseURL(srv.URL)}).News(context.Background(), &Input{Query: "x"})
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestToolkit(t *testing.T) {
	srv := startDuckDuckGoServer(t)
	list := newTestToolkit(srv).Tools()
	require.Len(t, list, 2)
	assert.Equal(t, "duckduckgo_search", list[0].Name())
	assert.Equal(t, "duckduckgo_news", list[1].Name())
	assert.Len(t, newTestToolkit(srv, WithNews(false)).Tools(), 1)

	out, err := list[0].Call(context.Background(), `{"query":"gen ai","max_results":1}`)
	require.NoError(t, err)
	var items []SearchResultItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Gen AI in Banking", items[0].Title)

	_, err = list[0].Call(context.Background(), `{}`)
	assert.Error(t, err)
}
