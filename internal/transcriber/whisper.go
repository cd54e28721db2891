package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nguyentantai21042004/video-transcriber/internal/config"
	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
	"github.com/nguyentantai21042004/video-transcriber/pkg/executor"
)

// ErrNoSpeech is returned when the model produced no text for the audio.
var ErrNoSpeech = errors.New("no speech detected in audio")

// nonSpeechMarker matches segments made only of annotations such as
// [BLANK_AUDIO], [MUSIC], (silence) or a run of music notes.
var nonSpeechMarker = regexp.MustCompile(`^(?:\s*(?:\[[^\]]*\]|\([^)]*\)|[♪♫*]+)\s*)+$`)

// whisperEngine runs whisper.cpp against a resolved model file. It holds no
// per-call state, so concurrent Transcribe calls are safe as long as their
// audio paths differ.
type whisperEngine struct {
	size       string
	modelPath  string
	whisper    config.WhisperConfig
	ffmpegPath string
	executor   executor.Executor
	logger     logger.Logger
	readFile   func(name string) ([]byte, error)
	removeFile func(name string) error
}

func (e *whisperEngine) Size() string {
	return e.size
}

// Transcribe normalizes the input to 16kHz mono WAV, runs whisper.cpp with
// JSON output and parses text, language and segments from it
func (e *whisperEngine) Transcribe(ctx context.Context, audioPath, language string) (domain.Transcript, error) {
	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	wavPath := base + "_16k.wav"
	outputPrefix := base + "_whisper"
	jsonPath := outputPrefix + ".json"
	defer e.cleanupTempFile(ctx, wavPath)
	defer e.cleanupTempFile(ctx, jsonPath)

	e.logger.Info(ctx, "Extracting audio: %s", audioPath)
	if _, err := e.executor.Execute(ctx, e.ffmpegPath, buildFFmpegArgs(audioPath, wavPath)...); err != nil {
		return domain.Transcript{}, fmt.Errorf("unsupported or corrupt media: %w", err)
	}

	e.logger.Info(ctx, "Starting transcription with model %s (%d threads, language %s): %s",
		e.size, e.whisper.Threads, displayLanguage(language), wavPath)
	args := buildWhisperArgs(e.modelPath, wavPath, outputPrefix, language, e.whisper.Threads, e.whisper.Prompt)
	if _, err := e.executor.Execute(ctx, e.whisper.BinaryPath, args...); err != nil {
		return domain.Transcript{}, fmt.Errorf("whisper transcribe: %w", err)
	}

	data, err := e.readFile(jsonPath)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("whisper completed but output is missing: %w", err)
	}

	transcript, err := parseWhisperJSON(data)
	if err != nil {
		return domain.Transcript{}, err
	}
	if transcript.Language == "" {
		transcript.Language = language
	}
	if transcript.Text == "" {
		return transcript, ErrNoSpeech
	}

	e.logger.Info(ctx, "Transcription completed: %d segments, language %s", len(transcript.Segments), transcript.Language)
	return transcript, nil
}

// cleanupTempFile removes a temporary file, logs warning if fails
func (e *whisperEngine) cleanupTempFile(ctx context.Context, path string) {
	if err := e.removeFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		e.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", path, err)
	}
}

// buildFFmpegArgs builds preprocessing args for mono 16k PCM WAV output.
// whisper.cpp only reads 16kHz WAV input.
func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

// buildWhisperArgs builds whisper.cpp args for JSON output.
// whisper.cpp defaults to English, so auto-detection must be requested with
// "-l auto" explicitly.
func buildWhisperArgs(modelPath, audioPath, outputPrefix, language string, threads int, prompt string) []string {
	lang := language
	if lang == "" {
		lang = "auto"
	}
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-oj",
		"-of", outputPrefix,
		"-l", lang,
		"-np",
	}
	if threads > 0 {
		args = append(args, "-t", strconv.Itoa(threads))
	}
	if prompt = strings.TrimSpace(prompt); prompt != "" {
		args = append(args, "--prompt", prompt)
	}
	return args
}

type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseWhisperJSON converts whisper.cpp -oj output into a Transcript
func parseWhisperJSON(data []byte) (domain.Transcript, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return domain.Transcript{}, fmt.Errorf("parse whisper output: %w", err)
	}

	transcript := domain.Transcript{
		Language: strings.TrimSpace(out.Result.Language),
		Segments: make([]domain.Segment, 0, len(out.Transcription)),
	}

	var text strings.Builder
	for _, seg := range out.Transcription {
		if isNonSpeech(seg.Text) {
			continue
		}
		// Segment texts carry their own leading space.
		text.WriteString(seg.Text)
		transcript.Segments = append(transcript.Segments, domain.Segment{
			Start: time.Duration(seg.Offsets.From) * time.Millisecond,
			End:   time.Duration(seg.Offsets.To) * time.Millisecond,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	transcript.Text = strings.TrimSpace(text.String())
	return transcript, nil
}

func isNonSpeech(text string) bool {
	text = strings.TrimSpace(text)
	return text == "" || nonSpeechMarker.MatchString(text)
}

func displayLanguage(language string) string {
	if language == "" {
		return "auto"
	}
	return language
}
