package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrUnsupported is returned for content no parser accepts
	ErrUnsupported = errors.New("unsupported document type")
	// ErrTooLarge is returned for content over the size limit
	ErrTooLarge = errors.New("document too large")
)

// DefaultMaxSize largest document read from a file or url
const DefaultMaxSize = 10 << 20

// Document is text content with metadata
type Document struct {
	Content string
	Meta    map[string]string
}

func (d Document) String() string {
	return d.Content
}

// New returns a document from text
func New(content string, meta map[string]string) Document {
	return Document{Content: content, Meta: meta}
}

// Parse converts raw bytes to a document with the first parser accepting the detected mime type
func Parse(ctx context.Context, bs []byte, meta map[string]string, parsers ...Parser) (Document, error) {
	if len(parsers) == 0 {
		parsers = DefaultParsers()
	}
	mime := mimetype.Detect(bs)
	for _, p := range parsers {
		if !p.Accept(mime) {
			continue
		}
		var buf bytes.Buffer
		if err := p.Parse(ctx, bytes.NewReader(bs), &buf); err != nil {
			return Document{}, err
		}
		if meta == nil {
			meta = make(map[string]string, 1)
		}
		meta["mime"] = mime.String()
		return Document{Content: buf.String(), Meta: meta}, nil
	}
	return Document{}, fmt.Errorf("%w: %s", ErrUnsupported, mime.String())
}

// FromFile reads and parses a local file
func FromFile(ctx context.Context, name string, parsers ...Parser) (Document, error) {
	fp, err := os.Open(name)
	if err != nil {
		return Document{}, err
	}
	defer fp.Close()
	info, err := fp.Stat()
	if err != nil {
		return Document{}, err
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("%s is a directory", name)
	}
	bs, err := ReadLimited(fp, DefaultMaxSize)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", name, err)
	}
	return Parse(ctx, bs, map[string]string{
		"source":  filepath.Base(name),
		"modtime": strconv.FormatInt(info.ModTime().Unix(), 10),
	}, parsers...)
}

// FromURL downloads and parses a document
func FromURL(ctx context.Context, clt *http.Client, link string, parsers ...Parser) (Document, error) {
	if clt == nil {
		clt = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return Document{}, err
	}
	resp, err := clt.Do(req)
	if err != nil {
		return Document{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("fetch %s: %s", link, resp.Status)
	}
	bs, err := ReadLimited(resp.Body, DefaultMaxSize)
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", link, err)
	}
	return Parse(ctx, bs, map[string]string{"source": link}, parsers...)
}

// ReadLimited reads r to the end, failing with ErrTooLarge past limit bytes
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	bs, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(bs)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)
	}
	return bs, nil
}
