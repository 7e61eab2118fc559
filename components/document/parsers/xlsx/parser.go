package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"github.com/bububa/finagents/components/document"
)

// Parser renders every sheet of a workbook as a markdown table, the first row as header
type Parser struct {
	password string
}

var _ document.Parser = (*Parser)(nil)

type Option func(*Parser)

func WithPassword(passwd string) Option {
	return func(p *Parser) {
		p.password = passwd
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
	return m.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (p *Parser) Parse(ctx context.Context, reader *bytes.Reader, writer io.Writer) error {
	opts := make([]excelize.Options, 0, 1)
	if p.password != "" {
		opts = append(opts, excelize.Options{Password: p.password})
	}
	doc, err := excelize.OpenReader(reader, opts...)
	if err != nil {
		return err
	}
	defer doc.Close()
	for _, sheet := range doc.GetSheetList() {
		rows, err := doc.GetRows(sheet)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			continue
		}
		var width int
		for _, row := range rows {
			width = max(width, len(row))
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "# %s\n\n", sheet)
		for idx, row := range rows {
			writeRow(&sb, row, width)
			if idx == 0 {
				writeRow(&sb, nil, width)
			}
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(writer, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

// writeRow writes a table row padded to width. A nil row writes the header separator.
func writeRow(sb *strings.Builder, row []string, width int) {
	sb.WriteByte('|')
	for i := 0; i < width; i++ {
		switch {
		case row == nil:
			sb.WriteString(" --- |")
		case i < len(row):
			sb.WriteString(" " + escape(row[i]) + " |")
		default:
			sb.WriteString("  |")
		}
	}
	sb.WriteByte('\n')
}

func escape(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
