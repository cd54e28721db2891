package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/video-transcriber/internal/language"
	"github.com/nguyentantai21042004/video-transcriber/internal/transcriber"
)

func newModelsCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List whisper.cpp models and their local download status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			defaultSize := transcriber.NormalizeSize(cfg.Whisper.ModelSize)

			var rows [][]string
			for _, m := range transcriber.Models(cfg.Whisper.ModelDir) {
				status := "-"
				if m.Downloaded {
					status = "downloaded"
				}
				name := m.Size
				if m.Size == defaultSize {
					name += " (default)"
				}
				rows = append(rows, []string{name, m.SizeLabel, status, m.Description})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Model", "Size", "Status", "Description"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft}))
			return nil
		},
	}
}

func newLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported language hints",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows [][]string
			for _, opt := range language.Options() {
				code := opt.Code
				if code == "" {
					code = language.Auto
				}
				rows = append(rows, []string{code, opt.Name, opt.EnglishName})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Code", "Name", "English"}, rows, nil))
			return nil
		},
	}
}
