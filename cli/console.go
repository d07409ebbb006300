// Package cli is the interactive terminal front end: a readline prompt that
// drives the session manager, the search orchestrator and the filter view.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/aluiziolira/smartmarket/auth"
	"github.com/aluiziolira/smartmarket/config"
	"github.com/aluiziolira/smartmarket/filter"
	"github.com/aluiziolira/smartmarket/search"
)

// errExit ends the Run loop.
var errExit = errors.New("exit requested")

// LineReader is the subset of *readline.Instance the console uses.
type LineReader interface {
	Readline() (string, error)
	ReadPassword(prompt string) ([]byte, error)
	SetPrompt(prompt string)
	Close() error
}

// Console runs commands read from a LineReader.
type Console struct {
	rl      LineReader
	out     io.Writer
	cfg     *config.Config
	session *auth.Manager
	search  *search.Orchestrator
	view    *filter.State
}

// NewConsole wires a console. The view should already be subscribed to the
// orchestrator's datasets.
func NewConsole(rl LineReader, out io.Writer, cfg *config.Config, session *auth.Manager, orch *search.Orchestrator, view *filter.State) *Console {
	return &Console{
		rl:      rl,
		out:     out,
		cfg:     cfg,
		session: session,
		search:  orch,
		view:    view,
	}
}

// NewCompleter returns tab completion for every console command.
func NewCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("login"),
		readline.PcItem("register"),
		readline.PcItem("logout"),
		readline.PcItem("status"),
		readline.PcItem("search"),
		readline.PcItem("url"),
		readline.PcItem("price"),
		readline.PcItem("rating"),
		readline.PcItem("discount", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem("show"),
		readline.PcItem("stats"),
		readline.PcItem("export"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// Prompt reflects the session state.
func (c *Console) Prompt() string {
	switch c.session.State() {
	case auth.StateAuthenticated:
		if email := c.session.Form().Email; email != "" {
			return "smartmarket(" + email + ")> "
		}
		return "smartmarket(logged in)> "
	case auth.StateLockedOut:
		return "smartmarket(locked)> "
	default:
		return "smartmarket> "
	}
}

// Run reads and executes commands until exit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	c.rl.SetPrompt(c.Prompt())
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		err := c.Step(ctx)
		switch {
		case err == nil:
		case errors.Is(err, readline.ErrInterrupt):
			c.println("Use 'exit' to leave.")
		case errors.Is(err, io.EOF), errors.Is(err, errExit):
			return nil
		default:
			c.println("Error: " + displayError(err))
		}
		c.rl.SetPrompt(c.Prompt())
	}
}

// Step reads one line and executes it.
func (c *Console) Step(ctx context.Context) error {
	line, err := c.rl.Readline()
	if err != nil {
		return err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	return c.Execute(ctx, ParseArgs(line))
}

// Execute dispatches a parsed command line.
func (c *Console) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command provided")
	}

	switch strings.ToLower(args[0]) {
	case "login":
		return c.handleLogin(ctx, args[1:])
	case "register":
		return c.handleRegister(ctx, args[1:])
	case "logout":
		return c.handleLogout()
	case "status":
		return c.handleStatus()
	case "search":
		return c.handleSearch(ctx, args[1:], false)
	case "url":
		return c.handleSearch(ctx, args[1:], true)
	case "price":
		return c.handleRange(args[1:], c.view.SetPrice, "price")
	case "rating":
		return c.handleRange(args[1:], c.view.SetRating, "rating")
	case "discount":
		return c.handleDiscount(args[1:])
	case "show":
		return c.handleShow(args[1:])
	case "stats":
		return c.handleStats()
	case "export":
		return c.handleExport(ctx, args[1:])
	case "help":
		c.printHelp(args[1:])
		return nil
	case "exit", "quit":
		c.println("Bye.")
		return errExit
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// ParseArgs splits input on spaces, keeping double-quoted runs together.
func ParseArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false
	quoted := false

	flush := func() {
		if current.Len() > 0 || quoted {
			args = append(args, current.String())
		}
		current.Reset()
		quoted = false
	}

	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			quoted = true
		case (r == ' ' || r == '\t') && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return args
}

func displayError(err error) string {
	var pre *auth.PreconditionError
	if errors.As(err, &pre) && pre.Field != "" {
		return pre.Field + ": " + pre.Message
	}
	return err.Error()
}

func (c *Console) println(a ...interface{}) {
	fmt.Fprintln(c.out, a...)
}

func (c *Console) printf(format string, a ...interface{}) {
	fmt.Fprintf(c.out, format, a...)
}

func (c *Console) promptForInput(prompt string) (string, error) {
	c.rl.SetPrompt(prompt)
	defer c.rl.SetPrompt(c.Prompt())
	line, err := c.rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) promptForPassword(prompt string) (string, error) {
	pw, err := c.rl.ReadPassword(prompt)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
