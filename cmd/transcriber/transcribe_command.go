package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/export"
	"github.com/nguyentantai21042004/video-transcriber/internal/media"
	"github.com/nguyentantai21042004/video-transcriber/internal/workspace"
)

type transcribeOptions struct {
	language string
	model    string
	out      string
	segments bool
}

func newTranscribeCommand(cmdCtx *commandContext) *cobra.Command {
	var opts transcribeOptions

	cmd := &cobra.Command{
		Use:   "transcribe <file|url>",
		Short: "Transcribe one video file or YouTube/Instagram link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			req, err := requestFor(args[0], opts.language)
			if err != nil {
				return err
			}

			modelSize := cfg.Whisper.ModelSize
			if opts.model != "" {
				modelSize = opts.model
			}

			log := cmdCtx.logger(cmd.ErrOrStderr())
			a, err := newApp(cfg, modelSize, log)
			if err != nil {
				return fmt.Errorf("prepare transcriber: %w", err)
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report := a.orchestrator.Run(ctx, workspace.NewJobID(), req, nil)
			if !report.Succeeded() {
				if report.Status == domain.JobStatusCancelled {
					return context.Canceled
				}
				return report.Error
			}

			return writeTranscript(cmd.OutOrStdout(), report.Transcript(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Language hint (pt, en, ...); empty or auto to detect")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model size (overrides whisper.model_size)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the transcript to a .txt, .srt or .docx file")
	cmd.Flags().BoolVar(&opts.segments, "segments", false, "Print timed segments as a table")
	return cmd
}

// requestFor builds a job request from a CLI argument: http(s) links become
// URL jobs, anything else is read as a local upload.
func requestFor(arg, lang string) (domain.Request, error) {
	arg = strings.TrimSpace(arg)
	lower := strings.ToLower(arg)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		kind, ok := media.KindForURL(arg)
		if !ok {
			return domain.Request{}, domain.Validationf("invalid URL: %q is not a YouTube or Instagram link", arg)
		}
		return domain.Request{Kind: kind, URL: arg, Language: lang}, nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return domain.Request{}, fmt.Errorf("read input: %w", err)
	}
	return domain.Request{
		Kind:     domain.SourceUpload,
		FileName: filepath.Base(arg),
		Data:     data,
		Language: lang,
	}, nil
}

func writeTranscript(out io.Writer, t domain.Transcript, opts transcribeOptions) error {
	if opts.out != "" {
		if err := saveTranscript(opts.out, t); err != nil {
			return err
		}
		fmt.Fprintf(out, "Transcript written to %s\n", opts.out)
	}

	if opts.segments {
		rows := make([][]string, 0, len(t.Segments))
		for _, seg := range t.Segments {
			rows = append(rows, []string{export.Stamp(seg.Start), export.Stamp(seg.End), seg.Text})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Start", "End", "Text"}, rows, nil))
	} else if opts.out == "" {
		fmt.Fprintln(out, t.Text)
	}

	if t.Language != "" {
		fmt.Fprintf(out, "Detected language: %s\n", t.Language)
	}
	return nil
}

func saveTranscript(path string, t domain.Transcript) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return export.WriteDocx(path, "Transcrição", t)
	case ".srt":
		return os.WriteFile(path, export.SRT(t), 0o644)
	default:
		return os.WriteFile(path, export.Text(t), 0o644)
	}
}
