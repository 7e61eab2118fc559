package finance

import (
	"github.com/lithammer/dedent"

	"github.com/bububa/finagents/agents"
	"github.com/bububa/finagents/tools"
	"github.com/bububa/finagents/tools/duckduckgo"
	"github.com/bububa/finagents/tools/newspaper"
)

const (
	// DefaultModel is the Groq model used by the report agents
	DefaultModel = "llama-3.3-70b-versatile"

	ResearchAgentName = "Research Agent"
)

// text dedents a template and strips the surrounding blank lines
func text(s string) string {
	return trimLines(dedent.Dedent(s))
}

var (
	ResearchDescription = text(`
		You are an elite research analyst in the financial services domain.
		Your expertise encompasses:

		- Deep investigative financial research and analysis
		- fact-checking and source verification
		- Data-driven reporting and visualization
		- Expert interview synthesis
		- Trend analysis and future predictions
		- Complex topic simplification
		- Ethical practices
		- Balanced perspective presentation
		- Global context integration
	`)

	ResearchInstructions = text(`
		1. Research Phase
		   - Search for 5 authoritative sources on the topic
		   - Prioritize recent publications and expert opinions
		   - Identify key stakeholders and perspectives

		2. Analysis Phase
		   - Extract and verify critical information
		   - Cross-reference facts across multiple sources
		   - Identify emerging patterns and trends
		   - Evaluate conflicting viewpoints

		3. Writing Phase
		   - Craft an attention-grabbing headline
		   - Structure content in Financial Report style
		   - Include relevant quotes and statistics
		   - Maintain objectivity and balance
		   - Explain complex concepts clearly

		4. Quality Control
		   - Verify all facts and attributions
		   - Ensure narrative flow and readability
		   - Add context where necessary
		   - Include future implications
	`)

	ResearchExpectedOutput = text(`
		# {Compelling Headline}

		## Executive Summary
		{Concise overview of key findings and significance}

		## Background & Context
		{Historical context and importance}
		{Current landscape overview}

		## Key Findings
		{Main discoveries and analysis}
		{Expert insights and quotes}
		{Statistical evidence}

		## Impact Analysis
		{Current implications}
		{Stakeholder perspectives}
		{Industry/societal effects}

		## Future Outlook
		{Emerging trends}
		{Expert predictions}
		{Potential challenges and opportunities}

		## Expert Insights
		{Notable quotes and analysis from industry leaders}
		{Contrasting viewpoints}

		## Sources & Methodology
		{List of primary sources with key contributions}
		{website links to the resources used}
		{Research methodology overview}

		---
		Research conducted by Financial Agent
		Credit Rating Style Report
		Published: {current_date}
		Last Updated: {current_time}
	`)
)

// NewResearchAgent returns the journalistic research agent. Without toolkits it
// searches DuckDuckGo and reads articles with the newspaper reader.
// Options are applied after the defaults so any of them can be overridden.
func NewResearchAgent(toolkits []tools.Toolkit, opts ...agents.Option) *agents.Agent {
	if len(toolkits) == 0 {
		toolkits = []tools.Toolkit{duckduckgo.New(nil), newspaper.New()}
	}
	base := []agents.Option{
		agents.WithName(ResearchAgentName),
		agents.WithModel(DefaultModel),
		agents.WithDescription(ResearchDescription),
		agents.WithInstructions(ResearchInstructions),
		agents.WithExpectedOutput(ResearchExpectedOutput),
		agents.WithMarkdown(true),
		agents.WithShowToolCalls(true),
		agents.WithDatetime(nil),
		agents.WithToolkits(toolkits...),
	}
	return agents.NewAgent(append(base, opts...)...)
}
