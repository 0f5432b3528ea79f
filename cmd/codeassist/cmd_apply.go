package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codeassist/internal/apply"
	"codeassist/internal/renderer"
	"codeassist/internal/response"
)

var applyCmd = &cobra.Command{
	Use:   "apply [file|-]",
	Short: "Apply a saved model response",
	Long: `Reads a model response from a file, or from stdin when the argument is "-" or
missing, validates it and applies its actions in order. The first failing
action stops the batch; earlier actions stay applied.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	a, err := setup(false)
	if err != nil {
		return err
	}
	defer a.close()

	var data []byte
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return err
	}

	r := renderer.New(80)
	resp, err := response.Parse(string(data))
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), r.Error(err))
		return errors.New("response rejected")
	}
	response.StripRootPrefix(resp, filepath.Base(a.cfg.Root))

	applier, err := apply.New(a.cfg.Root, a.log)
	if err != nil {
		return err
	}
	batch := applier.ApplyAll(cmd.Context(), resp.Actions, nil)
	fmt.Fprintln(cmd.OutOrStdout(), r.Batch(resp, batch))
	if batch.Cancelled != nil {
		return batch.Cancelled
	}
	if !batch.OK() {
		return fmt.Errorf("action %d of %d failed", batch.Failed.Index+1, len(resp.Actions))
	}
	return nil
}
