package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"subforge/internal/subtitles"
	"subforge/internal/timeline"
)

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	segmentsCmd := &cobra.Command{
		Use:     "segments",
		Aliases: []string{"seg"},
		Short:   "Inspect and edit SRT files",
	}
	segmentsCmd.AddCommand(newSegmentsShowCommand(ctx))
	segmentsCmd.AddCommand(newSegmentsSplitCommand())
	segmentsCmd.AddCommand(newSegmentsMergeCommand())
	segmentsCmd.AddCommand(newSegmentsDeleteCommand())
	segmentsCmd.AddCommand(newSegmentsRegionCommand())
	segmentsCmd.AddCommand(newSegmentsConvertCommand())
	return segmentsCmd
}

// loadTimeline reads an SRT file into a fresh Timeline.
func loadTimeline(path string) (*timeline.Timeline, error) {
	segments, err := subtitles.ParseFile(path)
	if err != nil {
		return nil, err
	}
	tl := timeline.New(nil)
	tl.ReplaceAll(segments)
	return tl, nil
}

// editFile applies edit to the SRT at path and writes it back, keeping
// translations alongside source text.
func editFile(cmd *cobra.Command, arg string, edit func(*timeline.Timeline) error) error {
	path, err := resolvePath(arg)
	if err != nil {
		return err
	}
	tl, err := loadTimeline(path)
	if err != nil {
		return err
	}
	if err := edit(tl); err != nil {
		return err
	}
	if err := subtitles.WriteFileLocked(cmd.Context(), path, tl.Segments(), subtitles.ModeCache); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%d rows)\n", path, tl.Len())
	return nil
}

func newSegmentsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file.srt>",
		Short: "List the rows of an SRT file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			tl, err := loadTimeline(path)
			if err != nil {
				return err
			}
			segments := tl.Segments()
			if ctx.jsonOutput() {
				views := make([]timeline.View, len(segments))
				for i, seg := range segments {
					views[i] = timeline.ViewOf(seg)
				}
				return writeJSON(cmd, views)
			}
			rows := make([][]string, 0, len(segments))
			for _, seg := range segments {
				rows = append(rows, []string{
					strconv.Itoa(seg.Index),
					seg.StartTime(),
					seg.EndTime(),
					clip(seg.Text, 50),
					clip(seg.Translation, 50),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Start", "End", "Text", "Translation"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newSegmentsSplitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "split <file.srt> <row>",
		Short: "Split a row at its time midpoint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			return editFile(cmd, args[0], func(tl *timeline.Timeline) error {
				return tl.Split(row)
			})
		},
	}
}

func newSegmentsMergeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <file.srt> <rows>",
		Short: "Merge contiguous rows, e.g. 3-5",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := parseIndices(args[1])
			if err != nil {
				return err
			}
			return editFile(cmd, args[0], func(tl *timeline.Timeline) error {
				return tl.Merge(rows)
			})
		},
	}
}

func newSegmentsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file.srt> <row>",
		Short: "Delete a row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			return editFile(cmd, args[0], func(tl *timeline.Timeline) error {
				return tl.Delete(row)
			})
		},
	}
}

func newSegmentsRegionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "retime <file.srt> <row> <start> <end>",
		Short: "Set a row's bounds; times accept seconds or HH:MM:SS,mmm",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			start, err := parseSeconds(args[2])
			if err != nil {
				return err
			}
			end, err := parseSeconds(args[3])
			if err != nil {
				return err
			}
			return editFile(cmd, args[0], func(tl *timeline.Timeline) error {
				return tl.UpdateRegion(row, start, end)
			})
		},
	}
}

func newSegmentsConvertCommand() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "convert <file.srt> <output.srt>",
		Short: "Rewrite an SRT file in another mode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outMode, err := subtitles.ParseMode(mode)
			if err != nil {
				return err
			}
			input, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			output, err := resolvePath(args[1])
			if err != nil {
				return err
			}
			segments, err := subtitles.ParseFile(input)
			if err != nil {
				return err
			}
			if err := subtitles.WriteFileLocked(cmd.Context(), output, segments, outMode); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", output, outMode)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "source", "Output mode: source, translation, or bilingual")
	return cmd
}
