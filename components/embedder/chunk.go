package embedder

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/sentences"
	"github.com/clipperhouse/uax29/words"
	"github.com/pkoukk/tiktoken-go"
)

const (
	DefaultChunkSize    = 200
	DefaultChunkOverlap = 50
)

// TokenCounter counts tokens in a piece of text
type TokenCounter interface {
	Count(text string) int
}

// WordsTokenCounter counts unicode words, skipping whitespace and punctuation segments
type WordsTokenCounter struct{}

func (WordsTokenCounter) Count(text string) int {
	var ret int
	for _, seg := range words.SegmentAll([]byte(text)) {
		if strings.IndexFunc(string(seg), func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}) >= 0 {
			ret++
		}
	}
	return ret
}

// TikTokenCounter counts tokens the way OpenAI models do
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter loads an encoding such as "cl100k_base"
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

func (c *TikTokenCounter) Count(text string) int {
	return len(c.tke.Encode(text, nil, nil))
}

// SentenceSplitter splits text on unicode sentence boundaries and drops blank sentences
func SentenceSplitter(text string) []string {
	segs := sentences.SegmentAll([]byte(text))
	ret := make([]string, 0, len(segs))
	for _, seg := range segs {
		if s := strings.TrimSpace(string(seg)); s != "" {
			ret = append(ret, s)
		}
	}
	return ret
}

// Chunk is a run of consecutive sentences
type Chunk struct {
	Text      string
	TokenSize int
	// StartSentence index of the first sentence
	StartSentence int
	// EndSentence index after the last sentence
	EndSentence int
}

// TextChunker packs sentences into chunks of at most ChunkSize tokens, repeating
// about ChunkOverlap tokens of trailing sentences at the start of the next chunk.
// A sentence longer than ChunkSize becomes a chunk of its own.
type TextChunker struct {
	ChunkSize        int
	ChunkOverlap     int
	TokenCounter     TokenCounter
	SentenceSplitter func(string) []string
}

type TextChunkerOption func(*TextChunker)

func WithChunkSize(size int) TextChunkerOption {
	return func(tc *TextChunker) {
		tc.ChunkSize = size
	}
}

func WithChunkOverlap(overlap int) TextChunkerOption {
	return func(tc *TextChunker) {
		tc.ChunkOverlap = overlap
	}
}

func WithTokenCounter(counter TokenCounter) TextChunkerOption {
	return func(tc *TextChunker) {
		tc.TokenCounter = counter
	}
}

// NewTextChunker returns a chunker counting words, 200 tokens per chunk with 50 tokens overlap
func NewTextChunker(opts ...TextChunkerOption) *TextChunker {
	ret := &TextChunker{
		ChunkSize:        DefaultChunkSize,
		ChunkOverlap:     DefaultChunkOverlap,
		TokenCounter:     WordsTokenCounter{},
		SentenceSplitter: SentenceSplitter,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (tc *TextChunker) Chunk(text string) []Chunk {
	list := tc.SentenceSplitter(text)
	counts := make([]int, len(list))
	for i, s := range list {
		counts[i] = tc.TokenCounter.Count(s)
	}
	var (
		ret   []Chunk
		start int
		size  int
	)
	emit := func(end int) {
		ret = append(ret, Chunk{
			Text:          strings.Join(list[start:end], " "),
			TokenSize:     size,
			StartSentence: start,
			EndSentence:   end,
		})
	}
	for i, n := range counts {
		if size > 0 && size+n > tc.ChunkSize {
			emit(i)
			next := i
			for overlap := 0; next > start+1 && overlap < tc.ChunkOverlap; {
				next--
				overlap += counts[next]
			}
			start, size = next, 0
			for j := next; j < i; j++ {
				size += counts[j]
			}
			for start < i && size+n > tc.ChunkSize {
				size -= counts[start]
				start++
			}
		}
		size += n
	}
	if size > 0 {
		emit(len(list))
	}
	return ret
}
