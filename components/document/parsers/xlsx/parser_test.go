package xlsx

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bububa/finagents/components/document"
)

func workbook(t *testing.T) []byte {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Ticker", "Revenue", "Notes"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"MSFT", 65.6, "cloud | AI"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"NVDA", 35.1}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, New().Parse(context.Background(), bytes.NewReader(workbook(t)), &out))
	assert.Equal(t, "# Sheet1\n\n"+
		"| Ticker | Revenue | Notes |\n"+
		"| --- | --- | --- |\n"+
		"| MSFT | 65.6 | cloud \\| AI |\n"+
		"| NVDA | 35.1 |  |\n\n", out.String())
}

func TestDocumentParse(t *testing.T) {
	doc, err := document.Parse(context.Background(), workbook(t), nil, New())
	require.NoError(t, err)
	assert.Contains(t, doc.Content, "| MSFT | 65.6 |")
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", doc.Meta["mime"])
}
