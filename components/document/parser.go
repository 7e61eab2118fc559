package document

import (
	"bytes"
	"context"
	"io"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/gabriel-vasile/mimetype"
)

// Parser converts raw content into text
type Parser interface {
	Accept(*mimetype.MIME) bool
	Parse(context.Context, *bytes.Reader, io.Writer) error
}

// DefaultParsers handles html and plain text
func DefaultParsers() []Parser {
	return []Parser{NewHTML2MDParser(), TextParser{}}
}

// HTML2MDParser converts html to markdown
type HTML2MDParser struct {
	opts []converter.ConvertOptionFunc
}

var _ Parser = (*HTML2MDParser)(nil)

func NewHTML2MDParser(opts ...converter.ConvertOptionFunc) *HTML2MDParser {
	return &HTML2MDParser{
		opts: opts,
	}
}

func (h *HTML2MDParser) Accept(m *mimetype.MIME) bool {
	return m.Is("text/html")
}

func (h *HTML2MDParser) Parse(ctx context.Context, reader *bytes.Reader, writer io.Writer) error {
	bs, err := htmltomarkdown.ConvertReader(reader, h.opts...)
	if err != nil {
		return err
	}
	_, err = writer.Write(bs)
	return err
}

// TextParser copies text content, markdown and csv included
type TextParser struct{}

func (TextParser) Accept(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func (TextParser) Parse(ctx context.Context, reader *bytes.Reader, writer io.Writer) error {
	_, err := io.Copy(writer, reader)
	return err
}
