package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/and161185/guidecode/internal/config"
)

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(c.configInitCmd(), c.configPathCmd())
	return cmd
}

func (c *cli) configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				_, err := os.Stat(c.configPath)
				switch {
				case err == nil:
					fmt.Fprintln(c.errw, c.print.Error(c.configPath+" already exists. Use --force to overwrite it."))
					return errReported
				case !errors.Is(err, fs.ErrNotExist):
					return err
				}
			}
			if err := config.Default().Save(c.configPath); err != nil {
				return err
			}
			fmt.Fprintln(c.out, c.print.Success("Configuration written to "+c.configPath))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (c *cli) configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(c.out, c.configPath)
			return err
		},
	}
}
