package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/jingkaihe/hushprint/pkg/discovery"
	"github.com/jingkaihe/hushprint/pkg/session"
)

const prompt = "hushprint> "

type Config struct {
	In         io.Reader
	Out        io.Writer
	Session    *session.Session
	Discovery  *discovery.Cache
	Translator Translator
	// Confirm approves a reset. Nil prompts on In and accepts y or yes.
	Confirm session.ConfirmFunc
	Logger  *slog.Logger
}

// Shell routes operator commands to one edit session.
type Shell struct {
	sess    *session.Session
	cache   *discovery.Cache
	tr      Translator
	confirm session.ConfirmFunc
	out     io.Writer
	in      *bufio.Scanner
	logger  *slog.Logger
}

func New(cfg Config) *Shell {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sh := &Shell{
		sess:    cfg.Session,
		cache:   cfg.Discovery,
		tr:      cfg.Translator,
		confirm: cfg.Confirm,
		out:     cfg.Out,
		in:      bufio.NewScanner(cfg.In),
		logger:  logger.With("component", "shell"),
	}
	if sh.confirm == nil {
		sh.confirm = sh.promptConfirm
	}
	return sh
}

// Run prints the dialog and executes commands until quit, end of input or
// ctx is done.
func (sh *Shell) Run(ctx context.Context) error {
	sh.printf("%s", Render(sh.sess.Snapshot(), sh.tr))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sh.printf("%s", prompt)
		if !sh.in.Scan() {
			sh.printf("\n")
			return sh.in.Err()
		}
		if quit := sh.Exec(ctx, sh.in.Text()); quit {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the shell should exit.
// Session errors are printed, not returned.
func (sh *Shell) Exec(ctx context.Context, line string) bool {
	args, err := shellquote.Split(line)
	if err != nil {
		sh.println(sh.tr.Resolve("shell.usage", map[string]any{"usage": err.Error()}))
		return false
	}
	if len(args) == 0 {
		return false
	}

	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		sh.println(sh.tr.Resolve("shell.help", nil))
	case "list", "ls":
		sh.printf("%s", Render(sh.sess.Snapshot(), sh.tr))
	case "add":
		if len(args) != 2 {
			sh.usage("add <node> <method>")
			return false
		}
		sh.report(session.OpAdd, -1, sh.sess.Add(args[0], args[1]))
	case "toggle", "rm", "remove", "del":
		index, ok := sh.index(cmd, args)
		if !ok {
			return false
		}
		if cmd == "toggle" {
			sh.report(session.OpToggle, index, sh.sess.Toggle(index))
		} else {
			sh.report(session.OpRemove, index, sh.sess.Remove(index))
		}
	case "save":
		_, err := sh.sess.Commit(ctx)
		sh.report(session.OpCommit, -1, err)
	case "reset":
		_, err := sh.sess.DiscardToDefault(ctx, sh.confirm)
		sh.report(session.OpReset, -1, err)
	case "reload":
		sh.report(session.OpLoad, -1, sh.sess.Load(ctx))
	case "nodes":
		sh.suggestions(sh.cache.SuggestOwners(optional(args, 0)))
	case "methods":
		if len(args) < 1 || len(args) > 2 {
			sh.usage("methods <node> [prefix]")
			return false
		}
		sh.cache.CommitOwner(ctx, args[0])
		sh.suggestions(sh.cache.SuggestMembers(optional(args, 1)))
	default:
		sh.println(sh.tr.Resolve("shell.unknown", map[string]any{"command": cmd}))
	}
	return false
}

// index parses a 1-based position argument into a 0-based index.
func (sh *Shell) index(cmd string, args []string) (int, bool) {
	if len(args) != 1 {
		sh.usage(cmd + " <n>")
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		sh.usage(cmd + " <n>")
		return 0, false
	}
	return n - 1, true
}

// report prints the dialog after a successful operation, or the error
// message for a failed one.
func (sh *Shell) report(op session.Op, index int, err error) {
	if err != nil {
		sh.logger.Debug("command failed", "op", op, "error", err)
		sh.println(Status(&session.Result{Op: op, Index: index, Err: err}, sh.tr))
		return
	}
	sh.printf("%s", Render(sh.sess.Snapshot(), sh.tr))
}

func (sh *Shell) suggestions(items []string) {
	if len(items) == 0 {
		sh.println(sh.tr.Resolve("shell.noSuggestions", nil))
		return
	}
	for _, item := range items {
		sh.println("  " + item)
	}
}

func (sh *Shell) usage(usage string) {
	sh.println(sh.tr.Resolve("shell.usage", map[string]any{"usage": usage}))
}

func (sh *Shell) promptConfirm(context.Context) bool {
	question := sh.tr.Resolve("modal.confirmReset", nil)
	sh.printf("%s", sh.tr.Resolve("shell.confirmPrompt", map[string]any{"question": question}))
	if !sh.in.Scan() {
		return false
	}
	return IsYes(sh.in.Text())
}

// IsYes reports whether answer approves a y/N prompt.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func (sh *Shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format, args...)
}

func (sh *Shell) println(s string) {
	fmt.Fprintln(sh.out, s)
}
