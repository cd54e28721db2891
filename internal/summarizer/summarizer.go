package summarizer

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/language"
)

const summaryPrompt = `You are an expert at analysing spoken content. Based on the transcript below, write a DETAILED summary in %s.

Requirements:
- Start with a one-sentence overview of the topic
- List ALL main points in the order they appear
- Explain each point, including important tips and warnings
- Keep technical terms as spoken
- Use markdown: headings, bullet points, bold for key terms
- Finish with an "Important notes" section if anything needs emphasis

Transcript:
---
%s
---`

func (s *implSummarizer) Enabled() bool {
	return len(s.apiKeys) > 0
}

// Summarize sends the transcript to Gemini and returns the markdown summary.
func (s *implSummarizer) Summarize(ctx context.Context, transcript domain.Transcript) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}
	text := strings.TrimSpace(transcript.Text)
	if text == "" {
		return "", fmt.Errorf("transcript is empty")
	}

	lang := "the language of the transcript"
	if transcript.Language != "" {
		lang = language.DisplayName(transcript.Language)
	}

	s.logger.Info(ctx, "Summarizing transcript (%d characters) with %s", len(text), s.model)
	summary, err := s.callGemini(ctx, fmt.Sprintf(summaryPrompt, lang, text))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

// callGemini sends the prompt and returns the summary text.
// Rotates API keys on 429 / quota errors.
func (s *implSummarizer) callGemini(ctx context.Context, prompt string) (string, error) {
	attempts := len(s.apiKeys)
	var lastErr error

	for range attempts {
		key, index := s.key()

		text, err := s.generate(ctx, key, s.model, prompt)
		if err != nil {
			if isRateLimited(err) {
				s.logger.Warn(ctx, "Key %d rate limited, rotating...", index+1)
				s.rotateKey(index)
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}
		if text == "" {
			return "", fmt.Errorf("empty response from Gemini")
		}
		return text, nil
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (s *implSummarizer) key() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKeys[s.currentKey], s.currentKey
}

// rotateKey advances past index unless another caller already did.
func (s *implSummarizer) rotateKey(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentKey == index {
		s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	}
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func generateWithGemini(ctx context.Context, apiKey, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", nil
	}
	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return text.String(), nil
}
