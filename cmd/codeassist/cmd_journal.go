package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"codeassist/internal/renderer"
)

var journalLimit int

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent requests and what happened to their actions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(false)
		if err != nil {
			return err
		}
		defer a.close()

		j, err := a.openJournal()
		if err != nil {
			return err
		}
		if j == nil {
			return errors.New("journal is disabled in the config")
		}
		entries, err := j.Recent(cmd.Context(), journalLimit)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderer.New(80).Journal(entries))
		return nil
	},
}

func init() {
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of requests to show")
}
