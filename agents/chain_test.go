package agents

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainRun(t *testing.T) {
	first := startFakeLLM(t, completion("Microsoft grew 16%."))
	second := startFakeLLM(t, completion("Faithfulness: 5/5"))
	chain := NewChain(
		Step{Agent: newTestAgent(first)},
		Step{Agent: newTestAgent(second), Prompt: func(query, previous string) string {
			return "QUERY: " + query + "\nRESPONSE: " + previous
		}},
	)
	answer, resps, err := chain.Run(context.Background(), "How is Microsoft doing?")
	require.NoError(t, err)
	assert.Equal(t, "Faithfulness: 5/5", answer)
	assert.Len(t, resps, 2)
	msgs := second.requests[0].Messages
	assert.Equal(t, "QUERY: How is Microsoft doing?\nRESPONSE: Microsoft grew 16%.", msgs[len(msgs)-1].Content)
	msgs = first.requests[0].Messages
	assert.Equal(t, "How is Microsoft doing?", msgs[len(msgs)-1].Content)
}

func TestChainPrintResponse(t *testing.T) {
	first := startFakeLLM(t, completion("draft"))
	second := startFakeLLM(t, completion("final"))
	chain := NewChain(Step{Agent: newTestAgent(first), NoStream: true}, Step{Agent: newTestAgent(second), NoStream: true})
	var buf bytes.Buffer
	answers, err := chain.PrintResponse(context.Background(), &buf, "q", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"draft", "final"}, answers)
	assert.Equal(t, "draft\nfinal\n", buf.String())
	msgs := second.requests[0].Messages
	assert.Equal(t, "draft", msgs[len(msgs)-1].Content)
	assert.False(t, second.requests[0].Stream)
}

func TestEmptyChain(t *testing.T) {
	_, _, err := NewChain().Run(context.Background(), "q")
	assert.ErrorIs(t, err, ErrEmptyChain)
}
