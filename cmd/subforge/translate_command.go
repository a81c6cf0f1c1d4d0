package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subforge/internal/jobs"
	"subforge/internal/subtitles"
	"subforge/internal/workbench"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var (
		rows       string
		contextual bool
		output     string
		mode       string
	)

	cmd := &cobra.Command{
		Use:   "translate <file.srt|media>",
		Short: "Translate subtitle rows through the configured endpoint",
		Long: "Translate an SRT file, or the cached subtitles of a media file.\n" +
			"SRT input is written to --output (default <name>.<mode>.srt); media input\n" +
			"updates the cache and also writes --output when given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outMode, err := subtitles.ParseMode(mode)
			if err != nil {
				return err
			}
			selected, err := parseIndices(rows)
			if err != nil {
				return err
			}
			input, err := resolvePath(args[0])
			if err != nil {
				return err
			}

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := ctx.openApp(runCtx)
			if err != nil {
				return err
			}
			defer a.Close()

			progress := newProgressPrinter(cmd.ErrOrStderr(), jobs.KindTranslation)
			a.hub.AddPresenter(progress)

			fromSRT := isSubtitleFile(input)
			if fromSRT {
				if _, err := a.wb.Import(runCtx, input); err != nil {
					return err
				}
			} else {
				state, err := a.wb.OpenMedia(runCtx, input)
				if err != nil {
					return err
				}
				if state.SubtitlePath == "" {
					return fmt.Errorf("no cached subtitles for %s; run `subforge transcribe` first", input)
				}
			}

			if _, err := a.run(runCtx, progress, func() (workbench.JobView, error) {
				return a.wb.StartTranslation(runCtx, workbench.TranslationRequest{Rows: selected, Contextual: contextual})
			}); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !fromSRT {
				path, err := a.wb.UpdateCache(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Updated %s\n", path)
			}
			target := output
			if target == "" && fromSRT {
				target = derivedOutput(input, outMode)
			}
			if target == "" {
				return nil
			}
			if target, err = resolvePath(target); err != nil {
				return err
			}
			if err := a.wb.Export(runCtx, target, outMode); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rows, "rows", "r", "", "Rows to translate, e.g. 1,4-7 (default all)")
	cmd.Flags().BoolVar(&contextual, "contextual", false, "Include neighbouring rows in each prompt")
	cmd.Flags().StringVarP(&output, "output", "o", "", "SRT file to write")
	cmd.Flags().StringVar(&mode, "mode", "bilingual", "Output mode: source, translation, or bilingual")
	return cmd
}
