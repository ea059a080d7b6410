// Package logincmd implements the `todo login` command.
package logincmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/auth"
	"github.com/go-ports/todo/internal/router"
)

// Command implements `todo login`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	email    string
	password string
}

// New creates the login command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	f := c.cmd.Flags()
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
	if router.Resolve(router.Login, svc.Session.Valid()) != router.Login {
		sess, _ := svc.Session.Current()
		fmt.Fprintf(out, "Already signed in as %s. Run `todo logout` first to switch accounts.\n", sess.User.DisplayName())
		return nil
	}

	p := shared.NewPrompter(cmd)
	form := auth.Form{}
	if form.Email, err = p.Ask("Email", c.email); err != nil {
		return err
	}
	if form.Password, err = p.Secret("Password", c.password); err != nil {
		return err
	}

	sess, err := svc.Login(cmd.Context(), form)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s\n", sess.User.DisplayName())
	return nil
}
