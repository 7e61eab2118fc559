package finance

import "strings"

// Queries used by the report scripts
const (
	GenAIInFinancialServices = "Applications of Gen AI in Financial Services"
	AIInFinance              = "Analyze the current state and future implications of artificial intelligence in Finance"
	AIAgentsInFinance        = "AI agentsin Financial Services"
	MicrosoftInAI            = "How is Microsoft performing in the age of AI?"
	NvidiaNews               = "What's the latest news and financial performance of NVIDIA Corp (NVDA)?"
)

// SemiconductorAnalysis compares the AI chip makers
var SemiconductorAnalysis = text(`
	Analyze the semiconductor market performance focusing on:
	- NVIDIA (NVDA)
	- AMD (AMD)
	- Intel (INTC)
	- Taiwan Semiconductor (TSM)
	Compare their market positions, growth metrics, and future outlook in terms of AI growth.
`)

// trimLines drops the leading and trailing blank lines and the trailing spaces of the last line
func trimLines(s string) string {
	s = strings.TrimLeft(s, "\n")
	return strings.TrimRight(s, " \t\n")
}
