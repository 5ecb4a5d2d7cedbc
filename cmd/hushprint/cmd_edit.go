package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/hushprint/pkg/discovery"
	"github.com/jingkaihe/hushprint/pkg/shell"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the hook list interactively",
	Long: `Open an edit session on the stored hook list. Changes stay local until
"save"; "reset" restores the defaults after confirmation. Type "help" for
the command list.`,
	Args: cobra.NoArgs,
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	env, err := newClientEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := contextWithSignal(cmd.Context())
	defer cancel()

	cache := discovery.New(env.client, slog.Default())
	if err := shell.OpenDialog(ctx, env.sess, cache, env.loader, slog.Default()); err != nil {
		return err
	}

	sh := shell.New(shell.Config{
		In:         cmd.InOrStdin(),
		Out:        cmd.OutOrStdout(),
		Session:    env.sess,
		Discovery:  cache,
		Translator: env.tr,
		Logger:     slog.Default(),
	})
	return sh.Run(ctx)
}
