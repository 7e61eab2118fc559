package evaluator

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lithammer/dedent"

	"github.com/bububa/finagents/agents"
)

const (
	// DefaultModel is a smaller model than the one that wrote the response
	DefaultModel = "llama-3.1-8b-instant"
	Name         = "RAG Evaluator"
)

var (
	Description = text(`
		You are an expert RAG system evaluator with deep expertise in:
		- Information retrieval quality assessment
		- Response accuracy evaluation
		- Source attribution verification
		- Context relevance analysis
		- Natural language generation evaluation
	`)

	Instructions = text(`
		Evaluate the RAG system output based on these key metrics:

		1. Faithfulness (1-5):
		   - How accurately does the response reflect the source documents?
		   - Are there any hallucinations or incorrect statements?
		   - Does it maintain factual consistency?

		2. Context Relevance (1-5):
		   - Are the retrieved passages relevant to the query?
		   - Is important context missing?
		   - Is irrelevant information included?

		3. Answer Completeness (1-5):
		   - Does the response fully address the query?
		   - Are all key aspects covered?
		   - Is the level of detail appropriate?

		4. Source Attribution (1-5):
		   - Are sources properly cited?
		   - Is it clear which information comes from where?
		   - Can claims be traced back to sources?

		5. Response Coherence (1-5):
		   - Is the response well-structured?
		   - Does it flow logically?
		   - Is it easy to understand?

		Provide specific examples and explanations for each score.
	`)

	ExpectedOutput = text(`
		# RAG Evaluation Report

		## Overview
		Query: {query}
		Response Length: {n_chars} characters

		## Metric Scores

		### Faithfulness: {score}/5
		- Justification:
		- Examples:
		- Areas for Improvement:

		### Context Relevance: {score}/5
		- Justification:
		- Examples:
		- Areas for Improvement:

		### Answer Completeness: {score}/5
		- Justification:
		- Examples:
		- Areas for Improvement:

		### Source Attribution: {score}/5
		- Justification:
		- Examples:
		- Areas for Improvement:

		### Response Coherence: {score}/5
		- Justification:
		- Examples:
		- Areas for Improvement:

		## Overall Score: {total}/25

		## Key Recommendations
		1. {rec1}
		2. {rec2}
		3. {rec3}

		## Summary
		{final_assessment}
	`)

	promptTemplate = text(`
		Please evaluate this RAG system output:

		QUERY:
		%s

		RETRIEVED CONTEXT:
		%s

		RESPONSE:
		%s

		Provide a detailed evaluation following the metrics and format specified.
	`)
)

func text(s string) string {
	return strings.TrimRight(strings.TrimLeft(dedent.Dedent(s), "\n"), " \t\n")
}

// ExampleContext returns the passages used by the Microsoft example evaluation
func ExampleContext() []string {
	return []string{
		"Microsoft has been investing heavily in AI technologies, including partnerships with OpenAI.",
		"The company's Azure cloud platform is a key driver of its AI strategy.",
	}
}

// BuildPrompt renders the evaluation request. The retrieved passages are joined
// with single spaces; every input is inserted verbatim.
func BuildPrompt(query string, response string, context []string) string {
	return fmt.Sprintf(promptTemplate, query, strings.Join(context, " "), response)
}

// Evaluator is an LLM judge scoring RAG responses on five metrics
type Evaluator struct {
	agent *agents.Agent
}

// New returns an Evaluator, options are applied after the defaults
func New(opts ...agents.Option) *Evaluator {
	base := []agents.Option{
		agents.WithName(Name),
		agents.WithModel(DefaultModel),
		agents.WithDescription(Description),
		agents.WithInstructions(Instructions),
		agents.WithExpectedOutput(ExpectedOutput),
		agents.WithMarkdown(true),
	}
	return &Evaluator{agent: agents.NewAgent(append(base, opts...)...)}
}

// Agent returns the underlying judge agent
func (e *Evaluator) Agent() *agents.Agent {
	return e.agent
}

// Evaluate prints the evaluation report of response to w and returns it
func (e *Evaluator) Evaluate(ctx context.Context, w io.Writer, query string, response string, context []string, stream bool) (string, error) {
	return e.agent.PrintResponse(ctx, w, BuildPrompt(query, response, context), stream)
}
