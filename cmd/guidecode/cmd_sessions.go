package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/and161185/guidecode/internal/app"
	"github.com/and161185/guidecode/internal/errs"
)

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (c *cli) newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new discussion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			s, err := c.app.NewChat(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, c.print.Session(s))
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your discussions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			fmt.Fprintln(c.out, c.print.SessionList(c.app.Sessions(), c.app.Active()))
			return nil
		},
	}
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [session]",
		Short: "Print a discussion (the active one by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			id, err := c.sessionID(optionalArg(args))
			if err != nil {
				return err
			}
			s, err := c.app.Session(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, c.print.Session(s))
			return nil
		},
	}
}

func (c *cli) useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <session>",
		Short: "Make a discussion the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			id, err := c.sessionID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.Select(cmd.Context(), id); err != nil {
				return err
			}
			s, err := c.app.Session(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, c.print.Session(s))
			return nil
		},
	}
}

// ask sends text and prints the mentor's reply. Without any discussion a new
// one is started first.
func (c *cli) ask(ctx context.Context, sessionID, text string) error {
	if sessionID == "" && c.app.Active() == "" {
		if _, err := c.app.NewChat(ctx); err != nil {
			return err
		}
	}
	mctx, cancel := c.mentorCtx(ctx)
	defer cancel()

	fmt.Fprintln(c.out, c.print.Muted("Mentor is thinking…"))
	reply, err := c.app.Send(mctx, sessionID, text)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, c.print.Message(reply))
	return nil
}

func (c *cli) sendCmd() *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "send <text>...",
		Short: "Ask the mentor about a problem",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			id, err := c.sessionID(session)
			if err != nil {
				return err
			}
			return c.ask(cmd.Context(), id, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVarP(&session, "session", "s", "", "discussion id (defaults to the active one)")
	return cmd
}

const chatHelp = `Type your question and press Enter. Commands:
  /new            start a new discussion
  /list           list discussions
  /use <id>       switch discussion
  /rename <title> rename the current discussion
  /clear          reset the current discussion
  /show           print the current discussion
  /exit           leave`

func (c *cli) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive mentoring session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			ctx := cmd.Context()
			fmt.Fprintln(c.out, c.print.Muted(chatHelp))
			if s, err := c.app.Session(""); err == nil {
				fmt.Fprintln(c.out, c.print.Session(s))
			}
			for {
				line, err := c.prompt.line("\n› ")
				if err != nil {
					return nil
				}
				if ctx.Err() != nil {
					return nil
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				done, err := c.chatLine(ctx, line)
				if err != nil {
					if errors.Is(err, errReported) {
						continue
					}
					fmt.Fprintln(c.errw, c.print.Error(app.FriendlyMessage(err)))
					continue
				}
				if done {
					return nil
				}
			}
		},
	}
}

// chatLine handles one REPL input. It reports true when the user leaves.
func (c *cli) chatLine(ctx context.Context, line string) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		return false, c.ask(ctx, "", line)
	}
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch verb {
	case "/exit", "/quit":
		return true, nil
	case "/new":
		s, err := c.app.NewChat(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(c.out, c.print.Session(s))
	case "/list":
		fmt.Fprintln(c.out, c.print.SessionList(c.app.Sessions(), c.app.Active()))
	case "/use":
		id, err := c.sessionID(rest)
		if err != nil {
			return false, err
		}
		if err := c.app.Select(ctx, id); err != nil {
			return false, err
		}
		s, err := c.app.Session(id)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(c.out, c.print.Session(s))
	case "/rename":
		if c.app.Active() == "" {
			return false, errs.ErrNotFound
		}
		return false, c.app.Rename(ctx, c.app.Active(), rest)
	case "/clear":
		return false, c.app.Clear(ctx, "")
	case "/show":
		s, err := c.app.Session("")
		if err != nil {
			return false, err
		}
		fmt.Fprintln(c.out, c.print.Session(s))
	default:
		fmt.Fprintln(c.out, c.print.Muted(chatHelp))
	}
	return false, nil
}

func (c *cli) renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <session> <title>...",
		Short: "Rename a discussion",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			id, err := c.sessionID(args[0])
			if err != nil {
				return err
			}
			return c.app.Rename(cmd.Context(), id, strings.Join(args[1:], " "))
		},
	}
}

func (c *cli) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <session>",
		Short: "Delete a discussion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			id, err := c.sessionID(args[0])
			if err != nil {
				return err
			}
			if !c.yes {
				ok, err := c.prompt.confirm("Delete Discussion?", "This discussion will be permanently removed.", "Delete")
				if err != nil || !ok {
					return err
				}
			}
			return c.app.Delete(cmd.Context(), id)
		},
	}
}

func (c *cli) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [session]",
		Short: "Reset a discussion to its greeting",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			id, err := c.sessionID(optionalArg(args))
			if err != nil {
				return err
			}
			if !c.yes {
				ok, err := c.prompt.confirm("Clear Chat?", "All messages after the greeting will be removed.", "Clear")
				if err != nil || !ok {
					return err
				}
			}
			return c.app.Clear(cmd.Context(), id)
		},
	}
}
