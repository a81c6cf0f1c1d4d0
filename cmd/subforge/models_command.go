package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List recognition models (or translation models with --remote)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if remote {
				models, err := a.wb.ListTranslationModels(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"models": models})
				}
				for _, name := range models {
					marker := " "
					if name == a.cfg.Translation.Model {
						marker = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
				}
				return nil
			}

			models, err := a.wb.ListModels()
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"models":  models,
					"default": a.cfg.Recognizer.Model,
					"dir":     a.cfg.Paths.ModelsDir,
				})
			}
			if len(models) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No models found in %s\n", a.cfg.Paths.ModelsDir)
				return nil
			}
			rows := make([][]string, 0, len(models))
			for _, name := range models {
				rows = append(rows, []string{
					name,
					yesNo(name == a.cfg.Recognizer.Model),
					filepath.Join(a.cfg.Paths.ModelsDir, name),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Model", "Default", "Path"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "List models offered by the translation endpoint")
	return cmd
}
