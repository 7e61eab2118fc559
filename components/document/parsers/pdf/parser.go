package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/bububa/finagents/components/document"
)

// Parser extracts the text of a pdf row by row
type Parser struct {
	password string
}

var _ document.Parser = (*Parser)(nil)

type Option func(*Parser)

func WithPassword(password string) Option {
	return func(p *Parser) {
		p.password = password
	}
}

func New(opts ...Option) *Parser {
	ret := new(Parser)
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (p *Parser) Accept(m *mimetype.MIME) bool {
	return m.Is("application/pdf")
}

func (p *Parser) Parse(ctx context.Context, reader *bytes.Reader, writer io.Writer) error {
	var (
		r    *pdf.Reader
		err  error
		size = reader.Size()
	)
	if p.password != "" {
		// the reader asks again until it gets an empty password
		tried := false
		r, err = pdf.NewReaderEncrypted(reader, size, func() string {
			if tried {
				return ""
			}
			tried = true
			return p.password
		})
	} else {
		r, err = pdf.NewReader(reader, size)
	}
	if err != nil {
		return err
	}
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return err
		}
		var sb bytes.Buffer
		for _, row := range rows {
			for _, word := range row.Content {
				sb.WriteString(word.S)
			}
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
		if _, err := writer.Write(sb.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
