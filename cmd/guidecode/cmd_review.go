package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/and161185/guidecode/internal/app"
	"github.com/and161185/guidecode/internal/errs"
)

// Languages offered by the reviewer.
var languages = []string{"Java", "Python", "C++", "JavaScript", "General Logic"}

func (c *cli) reviewCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "review <file|->",
		Short: "Get feedback on a code attempt without the corrected code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			code, err := readAll(c.in, args[0])
			if err != nil {
				return err
			}
			mctx, cancel := c.mentorCtx(cmd.Context())
			defer cancel()

			rv, err := c.app.Review(mctx, string(code), lang)
			switch {
			case errors.Is(err, errs.ErrGenerationFailure):
				fmt.Fprintln(c.errw, c.print.Error(app.ReviewFailed))
				return errReported
			case err != nil:
				return err
			}
			fmt.Fprintln(c.out, c.print.Review(rv))
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "JavaScript", "language: "+strings.Join(languages, ", "))
	return cmd
}
