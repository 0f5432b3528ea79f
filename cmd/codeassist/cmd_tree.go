package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codeassist/internal/builder"
	"codeassist/internal/renderer"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the project tree as the model sees it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(false)
		if err != nil {
			return err
		}
		defer a.close()

		in, err := builder.New(a.cfg.Root, a.cfg.Ignore,
			builder.WithIgnoreFiles(a.cfg.UseIgnoreFiles), builder.WithLogger(a.log))
		if err != nil {
			return err
		}
		tree, err := in.Tree()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderer.New(80).Tree(tree))
		return nil
	},
}
