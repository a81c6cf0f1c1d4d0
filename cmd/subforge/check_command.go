package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"subforge/internal/preflight"
)

type checkReport struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, tools, the model, and the translation endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var settings, tools []checkReport
			failed := false
			for _, r := range preflight.RunAll(cmd.Context(), cfg) {
				settings = append(settings, checkReport{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
				failed = failed || !r.Passed
			}
			for _, s := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				detail := s.Detail
				if s.Available {
					detail = s.Command
				}
				tools = append(tools, checkReport{Name: s.Name, Passed: s.Available, Optional: s.Optional, Detail: detail})
				failed = failed || (!s.Available && !s.Optional)
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, map[string]any{"settings": settings, "tools": tools, "ok": !failed}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				if ctx.configPath != "" {
					fmt.Fprintf(out, "Config: %s\n\n", ctx.configPath)
				}
				fmt.Fprintln(out, renderSectionHeader("Settings", colorize))
				for _, r := range settings {
					fmt.Fprintln(out, renderStatusLine(r.Name, kindOf(r), r.Detail, colorize))
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderSectionHeader("Tools", colorize))
				for _, r := range tools {
					fmt.Fprintln(out, renderStatusLine(r.Name, kindOf(r), r.Detail, colorize))
				}
			}
			if failed {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}

func kindOf(r checkReport) statusKind {
	switch {
	case r.Passed:
		return statusOK
	case r.Optional:
		return statusWarn
	default:
		return statusError
	}
}
