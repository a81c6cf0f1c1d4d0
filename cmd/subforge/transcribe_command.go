package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subforge/internal/jobs"
	"subforge/internal/subtitles"
	"subforge/internal/workbench"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var (
		model  string
		device string
		output string
		mode   string
	)

	cmd := &cobra.Command{
		Use:   "transcribe <media>",
		Short: "Transcribe a media file into the subtitle cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outMode, err := subtitles.ParseMode(mode)
			if err != nil {
				return err
			}
			media, err := resolvePath(args[0])
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

			progress := newProgressPrinter(cmd.ErrOrStderr(), jobs.KindTranscription)
			a.hub.AddPresenter(progress)

			if _, err := a.wb.OpenMedia(runCtx, media); err != nil {
				return err
			}
			ev, err := a.run(runCtx, progress, func() (workbench.JobView, error) {
				return a.wb.StartTranscription(runCtx, workbench.TranscriptionRequest{Model: model, Device: device})
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ev.Result != nil && ev.Result.OutputPath != "" {
				fmt.Fprintf(out, "Cached subtitles at %s\n", ev.Result.OutputPath)
			}
			if output != "" {
				target, err := resolvePath(output)
				if err != nil {
					return err
				}
				if err := a.wb.Export(runCtx, target, outMode); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %s\n", target)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model directory name under models_dir (default from config)")
	cmd.Flags().StringVar(&device, "device", "", "Inference device: cpu or cuda (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write an SRT file to this path")
	cmd.Flags().StringVar(&mode, "mode", "source", "Output mode for --output: source, translation, or bilingual")
	return cmd
}
