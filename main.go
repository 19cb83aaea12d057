// Hue is a command-line controller for a Philips Hue bridge.
//
// It discovers and pairs with the bridge once, keeps the credential in
// ~/.hue, and then switches lights, sets individual light states and
// lists, recalls or creates scenes.
//
// Usage:
//
//	hue [setup|light|scene|on|off] [flags]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"unicode"
	"unicode/utf8"
)

// Set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, newApp(os.Stdout, os.Stderr), os.Args[1:])
	cancel()
	os.Exit(code)
}

// run executes one command and maps its outcome to an exit code. It is the
// only place that decides how the process ends.
func run(ctx context.Context, app *App, args []string) int {
	root := newRootCmd(app)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	return exitCode(app.Stderr, err)
}

func exitCode(stderr io.Writer, err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintln(stderr, capitalize(err.Error()))
	return 1
}

// ExitError ends the process with Code without printing anything more; the
// command has already written its own output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// capitalize turns a Go-style error string into a sentence for the terminal.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
