// Package registercmd implements the `todo register` command.
package registercmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/auth"
	"github.com/go-ports/todo/internal/router"
)

// Command implements `todo register`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	username string
	email    string
	password string
}

// New creates the register command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	f := c.cmd.Flags()
	f.StringVar(&c.username, "username", "", "Display name (prompted when omitted)")
	f.StringVar(&c.email, "email", "", "Account email (prompted when omitted)")
	f.StringVar(&c.password, "password", "", "Account password (prompted when omitted)")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	svc, err := c.ctx.Service()
	if err != nil {
		return err
	}
	defer svc.Close()

	out := cmd.OutOrStdout()
	if router.Resolve(router.Register, svc.Session.Valid()) != router.Register {
		sess, _ := svc.Session.Current()
		fmt.Fprintf(out, "Already signed in as %s. Run `todo logout` first to create another account.\n", sess.User.DisplayName())
		return nil
	}

	p := shared.NewPrompter(cmd)
	form := auth.Form{}
	if form.Username, err = p.Ask("Username", c.username); err != nil {
		return err
	}
	if form.Email, err = p.Ask("Email", c.email); err != nil {
		return err
	}
	if form.Password, err = p.Secret("Password", c.password); err != nil {
		return err
	}

	sess, err := svc.Register(cmd.Context(), form)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Registered and signed in as %s\n", sess.User.DisplayName())
	return nil
}
