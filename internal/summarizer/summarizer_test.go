package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/video-transcriber/internal/config"
	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
)

func newTestSummarizer(keys []string, gen generateFunc) *implSummarizer {
	s := New(config.GeminiConfig{APIKeys: keys, Model: "gemini-test"}, logger.Nop()).(*implSummarizer)
	s.generate = gen
	return s
}

var transcript = domain.Transcript{Text: "olá a todos, hoje vamos falar de Go", Language: "pt"}

func TestSummarizeDisabledWithoutKeys(t *testing.T) {
	s := newTestSummarizer(nil, nil)
	if s.Enabled() {
		t.Fatal("Enabled() = true without keys")
	}
	if _, err := s.Summarize(context.Background(), transcript); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("error = %v, want ErrNotConfigured", err)
	}
}

func TestSummarizeBuildsPrompt(t *testing.T) {
	var gotPrompt, gotModel string
	s := newTestSummarizer([]string{"k1"}, func(ctx context.Context, apiKey, model, prompt string) (string, error) {
		gotPrompt, gotModel = prompt, model
		return "  # Resumo\n- Go  ", nil
	})

	summary, err := s.Summarize(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary != "# Resumo\n- Go" {
		t.Errorf("summary = %q", summary)
	}
	if gotModel != "gemini-test" {
		t.Errorf("model = %q", gotModel)
	}
	if !strings.Contains(gotPrompt, transcript.Text) || !strings.Contains(gotPrompt, "Portuguese") {
		t.Errorf("prompt missing transcript or language:\n%s", gotPrompt)
	}
}

func TestSummarizeRotatesKeysOnQuota(t *testing.T) {
	var used []string
	s := newTestSummarizer([]string{"k1", "k2", "k3"}, func(ctx context.Context, apiKey, model, prompt string) (string, error) {
		used = append(used, apiKey)
		if apiKey != "k3" {
			return "", errors.New("Error 429, RESOURCE_EXHAUSTED")
		}
		return "summary", nil
	})

	if _, err := s.Summarize(context.Background(), transcript); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if strings.Join(used, ",") != "k1,k2,k3" {
		t.Errorf("keys used = %v", used)
	}

	// The working key stays selected for the next call.
	used = nil
	if _, err := s.Summarize(context.Background(), transcript); err != nil {
		t.Fatalf("second Summarize() error = %v", err)
	}
	if strings.Join(used, ",") != "k3" {
		t.Errorf("keys used on second call = %v", used)
	}
}

func TestSummarizeAllKeysExhausted(t *testing.T) {
	s := newTestSummarizer([]string{"k1", "k2"}, func(ctx context.Context, apiKey, model, prompt string) (string, error) {
		return "", errors.New("quota exceeded")
	})

	_, err := s.Summarize(context.Background(), transcript)
	if err == nil || !strings.Contains(err.Error(), "all API keys exhausted") {
		t.Fatalf("error = %v", err)
	}
}

func TestSummarizeStopsOnOtherErrors(t *testing.T) {
	calls := 0
	s := newTestSummarizer([]string{"k1", "k2"}, func(ctx context.Context, apiKey, model, prompt string) (string, error) {
		calls++
		return "", errors.New("invalid argument")
	})

	if _, err := s.Summarize(context.Background(), transcript); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSummarizeRejectsEmptyTranscript(t *testing.T) {
	s := newTestSummarizer([]string{"k1"}, func(ctx context.Context, apiKey, model, prompt string) (string, error) {
		t.Fatal("generate must not be called")
		return "", nil
	})
	if _, err := s.Summarize(context.Background(), domain.Transcript{Text: "   "}); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestSummarizeEmptyReply(t *testing.T) {
	s := newTestSummarizer([]string{"k1"}, func(ctx context.Context, apiKey, model, prompt string) (string, error) {
		return "", nil
	})
	if _, err := s.Summarize(context.Background(), transcript); err == nil {
		t.Fatal("expected error for empty reply")
	}
}
