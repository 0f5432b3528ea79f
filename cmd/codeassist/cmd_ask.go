package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"codeassist/internal/pipeline"
	"codeassist/internal/renderer"
)

var askCmd = &cobra.Command{
	Use:   "ask <request>",
	Short: "Send one request and apply the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := setup(false)
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.pipeline()
	if err != nil {
		return err
	}

	events, err := p.Start(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	r := renderer.New(80)
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var failure error
	for e := range events {
		switch e.Kind {
		case pipeline.EventProgress:
			fmt.Fprintln(errOut, e.Message)
		case pipeline.EventDone:
			fmt.Fprintln(out, r.Result(e.Result))
		case pipeline.EventError:
			fmt.Fprintln(errOut, r.Error(e.Err))
			failure = e.Err
		}
	}
	if failure != nil {
		var se *pipeline.StageError
		if errors.As(failure, &se) {
			return fmt.Errorf("request failed while %s", strings.ToLower(se.Stage.String()))
		}
		return errors.New("request failed")
	}
	return nil
}
