// File: cmd/rere/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/xkilldash9x/rere/cmd"
	"github.com/xkilldash9x/rere/internal/config"
	"github.com/xkilldash9x/rere/internal/observability"
)

const panicLogFile = "panic.log"

const banner = `
  ReRe - record, replay, repeat.
  Type a command (e.g. "macros list", "play demo --dry-run"), "help", or "exit".

`

// Function variables for dependency injection in tests.
var (
	osWriteFile           = os.WriteFile
	osExit                = os.Exit
	appDir                = config.AppDir
	stderr      io.Writer = os.Stderr
)

func main() {
	defer handlePanic()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 {
		if err := cmd.Execute(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				osExit(0)
				return
			}
			// cmd.Execute has already logged the error.
			osExit(1)
		}
		return
	}

	fmt.Print(banner)
	if err := runInteractive(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(stderr, "Error reading from stdin:", err)
		osExit(1)
	}
}

// runInteractive reads commands line by line until EOF, "exit" or "quit".
func runInteractive(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "rere > ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		executeInteractiveCommand(ctx, line, out)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Bye.")
	return nil
}

// executeInteractiveCommand runs one line against a fresh command tree so
// flag values never leak between lines.
func executeInteractiveCommand(ctx context.Context, line string, out io.Writer) {
	root := cmd.NewRootCommand()
	root.SetArgs(strings.Fields(line))
	root.SetOut(out)
	root.SetErr(out)

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "Error: command panicked: %v\n", r)
		}
	}()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(out, "Error:", err)
	}
}

// handlePanic writes the panic and stack to panic.log in the app directory
// (or the working directory when that is unavailable) and exits non-zero.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	msg := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	path := panicLogFile
	if dir, err := appDir(); err == nil {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			path = filepath.Join(dir, panicLogFile)
		}
	}

	if err := osWriteFile(path, []byte(msg), 0o644); err != nil {
		fmt.Fprintf(stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(stderr, "Panic details:\n%s\n", msg)
		osExit(1)
		return
	}
	fmt.Fprintf(stderr, "ReRe crashed. Details logged to %s\n", path)
	osExit(1)
}
