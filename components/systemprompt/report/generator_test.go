package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/finagents/components/systemprompt"
)

func TestGenerate(t *testing.T) {
	clock := func() time.Time {
		return time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)
	}
	g := New(
		WithDescription("You are a senior analyst."),
		WithInstructions("Search the web.", "Read the articles."),
		WithExpectedOutput("## Executive Summary\n{summary}"),
		WithMarkdown(true),
		WithContextProviders(systemprompt.NewDateTimeProvider(clock)),
	)
	expect := `You are a senior analyst.

# INSTRUCTIONS
- Search the web.
- Read the articles.

# EXPECTED OUTPUT
## Executive Summary
{summary}

# ADDITIONAL INFORMATION
- Use markdown to format your answers.

# EXTRA INFORMATION AND CONTEXT
## Current Date and Time
The current time is 2025-03-04 09:30:00 UTC`
	assert.Equal(t, expect, g.Generate())
}

func TestGenerateMinimal(t *testing.T) {
	assert.Equal(t, "", New().Generate())
	assert.Equal(t, "# ADDITIONAL INFORMATION\n- Use markdown to format your answers.", New(WithMarkdown(true)).Generate())
	assert.Equal(t, "# INSTRUCTIONS\n1. Research\n   - Search", New(WithInstructions("1. Research\n   - Search\n")).Generate())
}

func TestContextProviders(t *testing.T) {
	g := New()
	dt := systemprompt.NewDateTimeProvider(nil)
	g.AddContextProviders(dt, dt)
	assert.Len(t, g.ContextProviders(), 1)
	p, err := g.ContextProvider(dt.Title())
	require.NoError(t, err)
	assert.Equal(t, dt, p)
	g.RemoveContextProviders(dt.Title())
	assert.Empty(t, g.ContextProviders())
	_, err = g.ContextProvider(dt.Title())
	assert.Error(t, err)
}
