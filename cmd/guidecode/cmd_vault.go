package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/and161185/guidecode/internal/app"
)

func readAll(in io.Reader, p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(in)
	}
	return os.ReadFile(p)
}

func (c *cli) exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download a backup of all your discussions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			data, name, err := c.app.Export()
			if err != nil {
				return err
			}
			if output == "-" {
				_, err := fmt.Fprintln(c.out, string(data))
				return err
			}
			if output == "" {
				output = name
			}
			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o700); err != nil {
					return err
				}
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return err
			}
			fmt.Fprintln(c.out, c.print.Success("Backup written to "+output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default guidecode-backup-<date>.json, - for stdout)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Restore discussions from a backup, replacing the current ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			data, err := readAll(c.in, args[0])
			if err != nil {
				return err
			}
			if err := c.app.Import(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintln(c.out, c.print.Success(app.ImportSuccess))
			return nil
		},
	}
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Factory reset: delete every discussion of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			u := c.app.User()
			if !c.yes {
				ok, err := c.prompt.confirm("Factory Reset?",
					fmt.Sprintf("This will permanently delete ALL data for %s. This action is irreversible.", u.Email),
					"Clear All Data")
				if err != nil || !ok {
					return err
				}
			}
			if err := c.app.FactoryReset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, c.print.Muted("All discussions deleted."))
			return nil
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the data vault summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			st, err := c.app.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, c.print.Stats(*c.app.User(), st))
			return nil
		},
	}
}
