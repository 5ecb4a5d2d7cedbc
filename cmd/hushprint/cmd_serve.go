package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/hushprint/internal/errx"
	"github.com/jingkaihe/hushprint/pkg/host"
	"github.com/jingkaihe/hushprint/pkg/server"
	"github.com/jingkaihe/hushprint/pkg/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hook registry server",
	Long: `Serve the hook registry: the stored hook list (a saved user list, else the
defaults file), candidate nodes and methods from the host catalog, and the
built-in locale dictionaries. Stored hooks are applied at startup and after
every replace or reset.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "127.0.0.1", "Host interface to bind")
	serveCmd.Flags().Int("port", 8541, "Port to bind")
	serveCmd.Flags().String("base-path", server.DefaultBasePath, "Path prefix for every endpoint")
	serveCmd.Flags().String("db", "", "SQLite database for the user hook list (default $HOME/.local/share/hushprint/hooks.db)")
	serveCmd.Flags().String("defaults", defaultHooksPath(), "Default hooks file (.json or .hcl)")
	serveCmd.Flags().String("catalog", "", "Host catalog file of nodes and methods (.json or .hcl)")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	viper.BindPFlag("serve.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("serve.base-path", serveCmd.Flags().Lookup("base-path"))
	viper.BindPFlag("serve.db", serveCmd.Flags().Lookup("db"))
	viper.BindPFlag("serve.defaults", serveCmd.Flags().Lookup("defaults"))
	viper.BindPFlag("serve.catalog", serveCmd.Flags().Lookup("catalog"))
	viper.BindPFlag("serve.shutdown-timeout", serveCmd.Flags().Lookup("shutdown-timeout"))

	rootCmd.AddCommand(serveCmd)
}

func defaultHooksPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "hushprint", "default_hooks.json")
}

func runServe(cmd *cobra.Command, args []string) error {
	port := viper.GetInt("serve.port")
	if port <= 0 || port > 65535 {
		return errx.With(ErrInvalidFlag, ": --port must be between 1 and 65535")
	}
	shutdownTimeout := viper.GetDuration("serve.shutdown-timeout")
	if shutdownTimeout <= 0 {
		return errx.With(ErrInvalidFlag, ": --shutdown-timeout must be > 0")
	}
	logger := slog.Default()

	catalog, err := loadCatalog(viper.GetString("serve.catalog"), logger)
	if err != nil {
		return err
	}

	st, err := store.Open(store.Options{
		DBPath:       viper.GetString("serve.db"),
		DefaultsPath: viper.GetString("serve.defaults"),
		Logger:       logger,
	})
	if err != nil {
		return errx.Wrap(ErrOpenStore, err)
	}
	defer st.Close()

	emitter, err := newEmitter("server", uuid.NewString())
	if err != nil {
		return err
	}
	defer emitter.Close()

	srv, err := server.New(server.Config{
		Store:        st,
		Catalog:      catalog,
		Instrumenter: host.NewCatalogInstrumenter(catalog, logger),
		BasePath:     viper.GetString("serve.base-path"),
		Emitter:      emitter,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := contextWithSignal(cmd.Context())
	defer cancel()

	if _, err := srv.ApplyStored(ctx); err != nil {
		return err
	}

	addr := net.JoinHostPort(viper.GetString("serve.host"), strconv.Itoa(port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "hushprint registry listening on http://%s%s\n", addr, srv.BasePath())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errx.Wrap(ErrStartServer, err)
	}
	return nil
}

// loadCatalog reads path, or returns an empty catalog when path is blank.
func loadCatalog(path string, logger *slog.Logger) (host.Catalog, error) {
	if path == "" {
		logger.Warn("no catalog configured, no hooks will be applied")
		return host.NewStaticCatalog(nil), nil
	}
	catalog, err := host.LoadCatalog(path)
	if err != nil {
		return nil, errx.Wrap(ErrLoadCatalog, err)
	}
	logger.Info("catalog loaded", "path", path, "nodes", len(catalog.Nodes()))
	return catalog, nil
}
