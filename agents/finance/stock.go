package finance

import (
	"github.com/bububa/finagents/agents"
	"github.com/bububa/finagents/tools"
	"github.com/bububa/finagents/tools/calculator"
	"github.com/bububa/finagents/tools/yfinance"
)

const StockAgentName = "Stock Agent"

var StockInstructions = text(`
	You are a seasoned credit rating analyst with deep expertise in market analysis! 📊

	Follow these steps for comprehensive financial analysis:
	1. Market Overview
	   - Latest stock price
	   - 52-week high and low
	2. Financial Deep Dive
	   - Key metrics (P/E, Market Cap, EPS)
	3. Market Context
	   - Industry trends and positioning
	   - Competitive analysis
	   - Market sentiment indicators
	   - Analyst Recommendations

	Your reporting style:
	- Begin with an executive summary
	- Use tables for data presentation
	- Include clear section headers
	- Highlight key insights with bullet points
	- Compare metrics to industry averages
	- Include technical term explanations
	- End with a forward-looking analysis

	Risk Disclosure:
	- Always highlight potential risk factors
	- Note market uncertainties
	- Mention relevant regulatory concerns
`)

// NewStockAgent returns the credit rating analyst agent. Without toolkits it uses
// every yfinance function plus the calculator.
func NewStockAgent(toolkits []tools.Toolkit, opts ...agents.Option) *agents.Agent {
	if len(toolkits) == 0 {
		toolkits = []tools.Toolkit{
			yfinance.New([]yfinance.Option{yfinance.EnableAll()}),
			tools.List{calculator.New()},
		}
	}
	base := []agents.Option{
		agents.WithName(StockAgentName),
		agents.WithModel(DefaultModel),
		agents.WithInstructions(StockInstructions),
		agents.WithMarkdown(true),
		agents.WithShowToolCalls(true),
		agents.WithDatetime(nil),
		agents.WithToolkits(toolkits...),
	}
	return agents.NewAgent(append(base, opts...)...)
}
