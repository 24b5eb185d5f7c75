// Package fakeprovider provides deterministic AI providers for tests.
package fakeprovider

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"

	"github.com/helixml/pagevec/infrastructure/provider"
)

// Dimension is the width of vectors returned by Keywords.
const Dimension = 3

var (
	petWords = map[string]bool{
		"cat": true, "cats": true, "dog": true, "dogs": true,
		"pet": true, "pets": true, "animal": true, "animals": true,
	}
	financeWords = map[string]bool{
		"stock": true, "stocks": true, "market": true, "shares": true,
	}
)

// Keywords embeds text as [pet words, finance words, 1], so texts about
// the same topic point in similar directions.
type Keywords struct {
	calls atomic.Int32
	err   error
}

// NewKeywords creates a Keywords embedder.
func NewKeywords() *Keywords {
	return &Keywords{}
}

// Failing returns an embedder whose every call fails with err.
func Failing(err error) *Keywords {
	return &Keywords{err: err}
}

// Calls returns the number of Embed calls made.
func (k *Keywords) Calls() int {
	return int(k.calls.Load())
}

// Vector returns the embedding of a single text.
func Vector(text string) []float64 {
	v := []float64{0, 0, 1}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if petWords[w] {
			v[0]++
		}
		if financeWords[w] {
			v[1]++
		}
	}
	return v
}

// Embed implements provider.Embedder.
func (k *Keywords) Embed(_ context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	k.calls.Add(1)
	if k.err != nil {
		return provider.EmbeddingResponse{}, k.err
	}
	texts := req.Texts()
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = Vector(text)
	}
	return provider.NewEmbeddingResponse(out, provider.NewUsage(len(texts), 0, len(texts))), nil
}

// Summaries answers every chat completion with a fixed summary object.
type Summaries struct {
	Summary string
	Topics  []string
}

// ChatCompletion implements provider.TextGenerator.
func (s Summaries) ChatCompletion(_ context.Context, _ provider.ChatCompletionRequest) (provider.ChatCompletionResponse, error) {
	body, err := json.Marshal(map[string]any{
		"title":       "summarized",
		"summary":     s.Summary,
		"main_topics": s.Topics,
		"key_points":  []string{},
		"entities":    map[string]any{},
	})
	if err != nil {
		return provider.ChatCompletionResponse{}, err
	}
	return provider.NewChatCompletionResponse(string(body), "stop", provider.NewUsage(0, 0, 0)), nil
}

var (
	_ provider.Embedder      = (*Keywords)(nil)
	_ provider.TextGenerator = Summaries{}
)
