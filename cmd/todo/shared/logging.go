package shared

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-ports/todo/internal/redaction"
)

// SetupLogging installs a text slog handler on w at level ("" means warn).
// String attributes and messages are passed through redaction.
func SetupLogging(w io.Writer, level string) error {
	var lvl slog.Level
	if level = strings.TrimSpace(level); level == "" {
		level = "warn"
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Value.Kind() {
			case slog.KindString:
				return slog.String(a.Key, redaction.Redact(a.Value.String(), nil))
			case slog.KindAny:
				if err, ok := a.Value.Any().(error); ok {
					return slog.String(a.Key, redaction.Redact(err.Error(), nil))
				}
			}
			return a
		},
	})
	slog.SetDefault(slog.New(h))
	return nil
}
