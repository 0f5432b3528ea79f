package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeassist/internal/ui"
)

var (
	// Global flags
	rootDir    string
	configPath string
	provider   string
	modelName  string
	verbose    bool
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "codeassist",
	Short: "Ask a model for file changes and apply them to a project",
	Long: `codeassist sends your request, the project tree and the recent conversation
to a language model, validates the JSON it answers with and applies the
CREATE/UPDATE/DELETE actions inside the project root.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(true)
		if err != nil {
			return err
		}
		defer a.close()

		p, err := a.pipeline()
		if err != nil {
			return err
		}
		return ui.Run(cmd.Context(), p, a.cfg, a.log)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootDir, "root", "r", "", "project root (default: current directory)")
	pf.StringVarP(&configPath, "config", "c", "", "config file (default: codeassist.yaml in the root)")
	pf.StringVar(&provider, "provider", "", "model provider: gemini or openai")
	pf.StringVarP(&modelName, "model", "m", "", "model name")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file")

	rootCmd.AddCommand(askCmd, treeCmd, applyCmd, journalCmd, checkCmd, configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
