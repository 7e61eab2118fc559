package document

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "msft.txt")
	require.NoError(t, os.WriteFile(name, []byte("Microsoft reported 16% revenue growth."), 0o644))
	doc, err := FromFile(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, "Microsoft reported 16% revenue growth.", doc.String())
	assert.Equal(t, "msft.txt", doc.Meta["source"])
	assert.Contains(t, doc.Meta["mime"], "text/plain")

	bin := filepath.Join(dir, "img.png")
	require.NoError(t, os.WriteFile(bin, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o644))
	_, err = FromFile(context.Background(), bin)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = FromFile(context.Background(), dir)
	assert.Error(t, err)
}

func TestFromFileTooLarge(t *testing.T) {
	name := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(name, bytes.Repeat([]byte("revenue "), DefaultMaxSize/8+1), 0o644))
	_, err := FromFile(context.Background(), name)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestReadLimited(t *testing.T) {
	bs, err := ReadLimited(bytes.NewReader([]byte("12345")), 5)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(bs))
	_, err = ReadLimited(bytes.NewReader([]byte("123456")), 5)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
			return
		case "/big":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write(bytes.Repeat([]byte("x"), DefaultMaxSize+1))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html><html><body><h1>Q3 Results</h1><p>Azure grew <strong>33%</strong>.</p></body></html>`))
	}))
	defer srv.Close()
	doc, err := FromURL(context.Background(), srv.Client(), srv.URL+"/report")
	require.NoError(t, err)
	assert.Equal(t, "# Q3 Results\n\nAzure grew **33%**.", doc.Content)
	assert.Equal(t, srv.URL+"/report", doc.Meta["source"])

	_, err = FromURL(context.Background(), srv.Client(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "404")

	_, err = FromURL(context.Background(), srv.Client(), srv.URL+"/big")
	assert.ErrorIs(t, err, ErrTooLarge)
}
