package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codeassist/internal/runner"
)

var checkCmd = &cobra.Command{
	Use:       "check [build|test]",
	Short:     "Run the configured build and test scripts",
	Long:      "Runs scripts.build and scripts.test from the config in the project root. With no argument both run, build first.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"build", "test"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(false)
		if err != nil {
			return err
		}
		defer a.close()

		steps := []struct{ name, script string }{
			{"build", a.cfg.Scripts.Build},
			{"test", a.cfg.Scripts.Test},
		}
		out := cmd.OutOrStdout()
		ran := 0
		for _, s := range steps {
			if len(args) == 1 && args[0] != s.name {
				continue
			}
			if s.script == "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "no %s script configured\n", s.name)
				continue
			}
			ran++
			fmt.Fprintf(out, "$ %s\n", s.script)
			if _, err := runner.Run(cmd.Context(), a.cfg.Root, s.script, func(line string) {
				fmt.Fprintln(out, line)
			}); err != nil {
				return fmt.Errorf("%s failed: %w", s.name, err)
			}
		}
		if ran == 0 {
			return fmt.Errorf("nothing to run: %w", runner.ErrNoCommand)
		}
		return nil
	},
}
