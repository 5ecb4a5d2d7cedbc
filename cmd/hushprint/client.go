package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/jingkaihe/hushprint/internal/errx"
	"github.com/jingkaihe/hushprint/pkg/i18n"
	"github.com/jingkaihe/hushprint/pkg/logging"
	"github.com/jingkaihe/hushprint/pkg/registry"
	"github.com/jingkaihe/hushprint/pkg/session"
	"github.com/jingkaihe/hushprint/pkg/shell"
)

func newRegistryClient() (*registry.Client, error) {
	cfg := registry.DefaultConfig()
	if addr := viper.GetString("client.server"); addr != "" {
		cfg.Address = addr
	}
	cfg.Timeout = viper.GetDuration("client.timeout")
	cfg.MaxRetries = viper.GetInt("client.retries")
	cfg.Logger = slog.Default()

	client, err := registry.NewClient(cfg)
	if err != nil {
		return nil, errx.Wrap(ErrCreateClient, err)
	}
	return client, nil
}

// newEmitter returns nil when no audit log is configured.
func newEmitter(source, sessionID string) (*logging.Emitter, error) {
	path := viper.GetString("audit.log")
	if path == "" {
		return nil, nil
	}
	w, err := logging.NewJSONLWriter(path)
	if err != nil {
		return nil, errx.Wrap(ErrOpenAuditLog, err)
	}
	return logging.NewEmitter(logging.EmitterConfig{SessionID: sessionID, Source: source}, w), nil
}

// newTranslations returns a resolver seeded with the built-in dictionaries
// and a loader that refreshes it from the registry.
func newTranslations(client *registry.Client) (*i18n.Resolver, *i18n.Loader) {
	r := i18n.NewResolver(viper.GetString("client.locale"), i18n.DefaultLocale)
	i18n.SeedBuiltin(r)
	return r, i18n.NewLoader(client, r, slog.Default())
}

// clientEnv bundles what every client command needs.
type clientEnv struct {
	client  *registry.Client
	sess    *session.Session
	tr      *i18n.Resolver
	loader  *i18n.Loader
	emitter *logging.Emitter
}

func newClientEnv() (*clientEnv, error) {
	client, err := newRegistryClient()
	if err != nil {
		return nil, err
	}
	emitter, err := newEmitter("client", "")
	if err != nil {
		return nil, err
	}
	tr, loader := newTranslations(client)
	sess := session.New(client, session.Options{Logger: slog.Default(), Emitter: emitter})
	return &clientEnv{client: client, sess: sess, tr: tr, loader: loader, emitter: emitter}, nil
}

func (e *clientEnv) Close() error {
	return e.emitter.Close()
}

// parsePosition converts a 1-based position argument to an index.
func parsePosition(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, errx.With(ErrInvalidPosition, ": %q", arg)
	}
	return n - 1, nil
}

// confirmFunc approves without asking when yes is set. Otherwise it prompts
// on in, which must be a terminal.
func confirmFunc(yes bool, in *os.File, out io.Writer, tr shell.Translator) (session.ConfirmFunc, error) {
	if yes {
		return func(context.Context) bool { return true }, nil
	}
	if !term.IsTerminal(int(in.Fd())) {
		return nil, ErrConfirmRequired
	}
	return func(context.Context) bool {
		question := tr.Resolve("modal.confirmReset", nil)
		fmt.Fprint(out, tr.Resolve("shell.confirmPrompt", map[string]any{"question": question}))
		var answer string
		if _, err := fmt.Fscanln(in, &answer); err != nil {
			return false
		}
		return shell.IsYes(answer)
	}, nil
}
