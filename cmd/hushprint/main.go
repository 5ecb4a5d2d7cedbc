package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/hushprint/internal/errx"
)

var rootCmd = &cobra.Command{
	Use:   "hushprint",
	Short: "Curate the hooks that silence console output in a running host",
	Long: `hushprint keeps a list of (node, method) hook targets in sync between an
editable working copy, the server-side store and the hooks installed in the
running host.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupRoot,
}

// exitCodeError ends the process with code without printing anything more.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default $HOME/.config/hushprint/config.yaml)")
	flags.String("server", "", "Registry address including base path (default $HUSHPRINT_ADDR or http://127.0.0.1:8541/remove-print)")
	flags.String("locale", "en", "Locale for messages, e.g. en, ja, ja-JP")
	flags.Duration("timeout", 30*time.Second, "Per-request timeout including retries")
	flags.Int("retries", 2, "Retries for failed registry requests")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error")
	flags.String("audit-log", "", "Append audit events as JSON lines to this file")

	viper.BindPFlag("config", flags.Lookup("config"))
	viper.BindPFlag("client.server", flags.Lookup("server"))
	viper.BindPFlag("client.locale", flags.Lookup("locale"))
	viper.BindPFlag("client.timeout", flags.Lookup("timeout"))
	viper.BindPFlag("client.retries", flags.Lookup("retries"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("audit.log", flags.Lookup("audit-log"))

	viper.SetEnvPrefix("HUSHPRINT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func setupRoot(cmd *cobra.Command, args []string) error {
	if err := loadConfig(viper.GetString("config")); err != nil {
		return err
	}
	logger, err := newLogger(viper.GetString("log.level"))
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads path, or the default config file when path is empty.
// Only an explicitly named file is required to exist.
func loadConfig(path string) error {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(filepath.Join(home, ".config", "hushprint"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return errx.Wrap(ErrReadConfig, err)
	}
	if err := viper.MergeConfigMap(v.AllSettings()); err != nil {
		return errx.Wrap(ErrReadConfig, err)
	}
	return nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errx.With(ErrInvalidLevel, ": %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
