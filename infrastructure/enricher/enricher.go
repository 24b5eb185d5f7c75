// Package enricher turns fetched page text into structured metadata with a
// chat model.
package enricher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/helixml/pagevec/infrastructure/provider"
)

// Summary field names in the model's JSON answer.
const (
	FieldTitle      = "title"
	FieldSummary    = "summary"
	FieldMainTopics = "main_topics"
	FieldKeyPoints  = "key_points"
	FieldEntities   = "entities"
	FieldError      = "error"
)

// FailedSummary is the summary text stored when the model call or its answer
// cannot be used.
const FailedSummary = "Failed to generate summary with AI."

// Content longer than maxInputChars is cut to its first headChars and last
// tailChars around truncationMarker before it is sent to the model.
const (
	maxInputChars    = 32000
	headChars        = 16000
	tailChars        = 8000
	truncationMarker = "\n\n[...content truncated...]\n\n"
)

const systemPrompt = `You are an AI assistant specialized in parsing web content. Extract the most important information from the given text.
Your task is to create a structured JSON output with the following fields:
- title: The main title or subject of the content
- summary: A concise summary (max 8 sentences)
- main_topics: An array of the main topics/themes covered (max 5)
- key_points: An array of key points or important information (max 10)
- entities: An object containing identified entities like people, organizations, locations, etc.

Do not include any explanations, just return the valid JSON.`

// summaryTemperature keeps repeated summaries of the same page stable.
const summaryTemperature = 0

// Summarizer asks a TextGenerator for a structured summary of a page.
type Summarizer struct {
	generator provider.TextGenerator
	maxTokens int
	log       *slog.Logger
}

// NewSummarizer creates a new Summarizer.
func NewSummarizer(generator provider.TextGenerator, log *slog.Logger) *Summarizer {
	if log == nil {
		log = slog.Default()
	}
	return &Summarizer{
		generator: generator,
		maxTokens: 2048,
		log:       log,
	}
}

// WithMaxTokens sets the maximum tokens for generation.
func (s *Summarizer) WithMaxTokens(n int) *Summarizer {
	s.maxTokens = n
	return s
}

// Summarize returns the parsed summary object. It never fails: when the model
// call or its answer is unusable, the result holds the page title,
// FailedSummary and the error text. A page without title and content yields
// an empty object and no model call.
func (s *Summarizer) Summarize(ctx context.Context, title, content string) map[string]any {
	clean := CleanText(content)
	if clean == "" && strings.TrimSpace(title) == "" {
		s.log.Warn("empty page given to summarizer")
		return map[string]any{}
	}

	if truncated, ok := truncate(clean); ok {
		s.log.Info("content too long, truncating for summary", slog.Int("chars", len([]rune(clean))))
		clean = truncated
	}

	parsed, err := s.request(ctx, title, clean)
	if err != nil {
		s.log.Error("failed to summarize page", slog.String("title", title), slog.Any("error", err))
		return map[string]any{
			FieldTitle:   title,
			FieldSummary: FailedSummary,
			FieldError:   err.Error(),
		}
	}

	s.log.Debug("summarized page", slog.Int("fields", len(parsed)))
	return parsed
}

func (s *Summarizer) request(ctx context.Context, title, content string) (map[string]any, error) {
	messages := []provider.Message{
		provider.SystemMessage(systemPrompt),
		provider.UserMessage(fmt.Sprintf("Title: %s\n\nContent: %s", title, content)),
	}

	req := provider.NewChatCompletionRequest(messages).
		WithMaxTokens(s.maxTokens).
		WithTemperature(summaryTemperature)

	resp, err := s.generator.ChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	return parseSummary(resp.Content())
}

// parseSummary decodes the model answer, tolerating reasoning blocks and
// markdown code fences around the JSON object.
func parseSummary(text string) (map[string]any, error) {
	text = stripCodeFence(cleanThinkingTags(text))
	if text == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if parsed == nil {
		return nil, fmt.Errorf("decode summary: not a JSON object")
	}
	return parsed, nil
}

func truncate(content string) (string, bool) {
	runes := []rune(content)
	if len(runes) <= maxInputChars {
		return content, false
	}
	return string(runes[:headChars]) + truncationMarker + string(runes[len(runes)-tailChars:]), true
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// cleanThinkingTags removes <think>...</think> blocks some models emit
// before their answer.
func cleanThinkingTags(text string) string {
	result := text
	for {
		start := strings.Index(result, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(result, "</think>")
		if end == -1 || end < start {
			result = result[:start] + result[start+len("<think>"):]
			continue
		}
		result = result[:start] + result[end+len("</think>"):]
	}
	return strings.TrimSpace(result)
}
