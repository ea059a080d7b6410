package shared

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

// Prompter asks for missing flag values on the command's input.
type Prompter struct {
	in  io.Reader
	out io.Writer
	r   *bufio.Reader
}

// NewPrompter reads from cmd's input and writes prompts to its error stream
// so stdout stays clean.
func NewPrompter(cmd *cobra.Command) *Prompter {
	in := cmd.InOrStdin()
	return &Prompter{in: in, out: cmd.ErrOrStderr(), r: bufio.NewReader(in)}
}

// Ask returns value if non-empty, otherwise prompts for it.
func (p *Prompter) Ask(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}

// Secret is Ask without echo when input is a terminal.
func (p *Prompter) Secret(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return p.Ask(label, value)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(f.Fd())
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return string(b), nil
}
