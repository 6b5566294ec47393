// Package repl is the interactive mode: a command loop over a live session
// controller.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/manash/lumina/internal/display"
	"github.com/manash/lumina/internal/image"
	"github.com/manash/lumina/internal/session"
)

type REPL struct {
	in        io.Reader
	out       io.Writer
	err       io.Writer
	ctrl      *session.Controller
	displayer *display.Displayer
	saver     *image.Saver
	commands  map[string]Command
	running   bool
}

type Config struct {
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	Controller *session.Controller
	Displayer  *display.Displayer
	Saver      *image.Saver
}

func New(cfg *Config) *REPL {
	r := &REPL{
		in:        cfg.In,
		out:       cfg.Out,
		err:       cfg.Err,
		ctrl:      cfg.Controller,
		displayer: cfg.Displayer,
		saver:     cfg.Saver,
		commands:  make(map[string]Command),
	}
	r.registerCommands()
	return r
}

func (r *REPL) Run(ctx context.Context) error {
	r.running = true
	r.printWelcome()

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for r.running {
		r.printPrompt()
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.err, "Error: %v\n", err)
		}
	}

	return scanner.Err()
}

func (r *REPL) execute(ctx context.Context, line string) error {
	parts := parseCommand(line)
	if len(parts) == 0 {
		return nil
	}

	cmdName := strings.ToLower(parts[0])
	args := parts[1:]

	cmd, ok := r.commands[cmdName]
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmdName)
	}

	return cmd.Execute(ctx, r, args)
}

func (r *REPL) Stop() {
	r.running = false
}

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.out, "lumina interactive mode")
	fmt.Fprintln(r.out, "Type 'help' for available commands, 'quit' to exit.")
	fmt.Fprintln(r.out)
}

func (r *REPL) printPrompt() {
	if r.ctrl.Mode() == "edit" && r.ctrl.SourceImage() == "" {
		fmt.Fprintf(r.out, "lumina [%s %s, no source]> ", r.ctrl.Mode(), r.ctrl.AspectRatio())
		return
	}
	fmt.Fprintf(r.out, "lumina [%s %s]> ", r.ctrl.Mode(), r.ctrl.AspectRatio())
}

// parseCommand splits a line into fields, honoring single and double quotes
// so prompts can contain spaces.
func parseCommand(line string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if inQuotes && ch == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else if !inQuotes {
				inQuotes = true
				quoteChar = ch
			} else {
				current.WriteRune(ch)
			}
		case ch == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
