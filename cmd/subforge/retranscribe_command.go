package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subforge/internal/jobs"
	"subforge/internal/subtitles"
	"subforge/internal/workbench"
)

func newRetranscribeCommand(ctx *commandContext) *cobra.Command {
	var (
		index    int
		srtPath  string
		model    string
		device   string
		startSec float64
		endSec   float64
	)

	cmd := &cobra.Command{
		Use:   "retranscribe <media>",
		Short: "Re-recognize one subtitle row from its audio range",
		Long: "Re-recognize one row of the media's cached subtitles, or of --srt when given.\n" +
			"Only the row's text is replaced; its timing and translation are kept.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if index < 1 {
				return fmt.Errorf("--index is required (rows start at 1)")
			}
			var span *workbench.Range
			if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") {
				if !cmd.Flags().Changed("start") || !cmd.Flags().Changed("end") {
					return fmt.Errorf("--start and --end must be given together")
				}
				span = &workbench.Range{StartSec: startSec, EndSec: endSec}
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

			progress := newProgressPrinter(cmd.ErrOrStderr(), jobs.KindRetranscription)
			a.hub.AddPresenter(progress)

			if _, err := a.wb.OpenMedia(runCtx, media); err != nil {
				return err
			}
			var target string
			if srtPath != "" {
				if target, err = resolvePath(srtPath); err != nil {
					return err
				}
				if _, err := a.wb.Import(runCtx, target); err != nil {
					return err
				}
			}
			if _, err := a.wb.LoadModel(runCtx, model, device); err != nil {
				return err
			}
			if _, err := a.run(runCtx, progress, func() (workbench.JobView, error) {
				return a.wb.StartRetranscription(runCtx, index-1, span)
			}); err != nil {
				return err
			}

			segments, err := a.wb.Segments(runCtx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if index <= len(segments) {
				fmt.Fprintf(out, "Row %d: %s\n", index, segments[index-1].Text)
			}
			if target != "" {
				if err := a.wb.Export(runCtx, target, subtitles.ModeCache); err != nil {
					return err
				}
				fmt.Fprintf(out, "Updated %s\n", target)
				return nil
			}
			path, err := a.wb.UpdateCache(runCtx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Updated %s\n", path)
			return nil
		},
	}

	cmd.Flags().IntVarP(&index, "index", "i", 0, "Row to retranscribe (1-based)")
	cmd.Flags().StringVar(&srtPath, "srt", "", "Edit this SRT file instead of the media's cache")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model directory name under models_dir (default from config)")
	cmd.Flags().StringVar(&device, "device", "", "Inference device: cpu or cuda (default from config)")
	cmd.Flags().Float64Var(&startSec, "start", 0, "Override range start in seconds")
	cmd.Flags().Float64Var(&endSec, "end", 0, "Override range end in seconds")
	return cmd
}
