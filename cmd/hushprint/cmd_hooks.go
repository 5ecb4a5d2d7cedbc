package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/hushprint/pkg/hooks"
	"github.com/jingkaihe/hushprint/pkg/session"
	"github.com/jingkaihe/hushprint/pkg/shell"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Show or change the stored hook list",
}

var hooksListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored hooks",
	Args:    cobra.NoArgs,
	RunE:    runHooksList,
}

var hooksAddCmd = &cobra.Command{
	Use:   "add <node> <method>",
	Short: "Add a hook and apply the list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHooksEdit(cmd, func(sess *session.Session) error {
			return sess.Add(args[0], args[1])
		})
	},
}

var hooksRemoveCmd = &cobra.Command{
	Use:     "rm <position>",
	Aliases: []string{"remove"},
	Short:   "Remove the hook at a 1-based position and apply the list",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parsePosition(args[0])
		if err != nil {
			return err
		}
		return runHooksEdit(cmd, func(sess *session.Session) error {
			return sess.Remove(index)
		})
	},
}

var hooksToggleCmd = &cobra.Command{
	Use:   "toggle <position>",
	Short: "Enable or disable the hook at a 1-based position and apply the list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parsePosition(args[0])
		if err != nil {
			return err
		}
		return runHooksEdit(cmd, func(sess *session.Session) error {
			return sess.Toggle(index)
		})
	},
}

var hooksResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the saved hooks and restore the defaults",
	Args:  cobra.NoArgs,
	RunE:  runHooksReset,
}

func init() {
	hooksListCmd.Flags().Bool("json", false, "Print the list as JSON")
	viper.BindPFlag("hooks.list.json", hooksListCmd.Flags().Lookup("json"))

	hooksResetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	viper.BindPFlag("hooks.reset.yes", hooksResetCmd.Flags().Lookup("yes"))

	hooksCmd.AddCommand(hooksListCmd, hooksAddCmd, hooksRemoveCmd, hooksToggleCmd, hooksResetCmd)
	rootCmd.AddCommand(hooksCmd)
}

func runHooksList(cmd *cobra.Command, args []string) error {
	env, err := newClientEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := contextWithSignal(cmd.Context())
	defer cancel()
	if err := env.sess.Load(ctx); err != nil {
		return err
	}
	entries := env.sess.Snapshot().Entries

	if viper.GetBool("hooks.list.json") {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]hooks.List{"hooks": entries})
	}
	return printHookTable(cmd.OutOrStdout(), entries)
}

func printHookTable(out io.Writer, entries hooks.List) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNODE\tMETHOD\tENABLED")
	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", i+1, e.Owner, e.Member, e.Enabled)
	}
	return w.Flush()
}

// runHooksEdit loads the stored list, applies edit to it and commits.
func runHooksEdit(cmd *cobra.Command, edit func(*session.Session) error) error {
	env, err := newClientEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := contextWithSignal(cmd.Context())
	defer cancel()
	if err := env.sess.Load(ctx); err != nil {
		return err
	}
	if err := edit(env.sess); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), shell.Status(env.sess.Snapshot().Last, env.tr))
		return &exitCodeError{code: 1}
	}
	if _, err := env.sess.Commit(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), shell.Status(env.sess.Snapshot().Last, env.tr))
		return &exitCodeError{code: 1}
	}

	snap := env.sess.Snapshot()
	if err := printHookTable(cmd.OutOrStdout(), snap.Entries); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), shell.Status(snap.Last, env.tr))
	return nil
}

func runHooksReset(cmd *cobra.Command, args []string) error {
	env, err := newClientEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	confirm, err := confirmFunc(viper.GetBool("hooks.reset.yes"), os.Stdin, cmd.ErrOrStderr(), env.tr)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithSignal(cmd.Context())
	defer cancel()
	if err := env.sess.Load(ctx); err != nil {
		return err
	}
	if _, err := env.sess.DiscardToDefault(ctx, confirm); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), shell.Status(env.sess.Snapshot().Last, env.tr))
		return &exitCodeError{code: 1}
	}

	snap := env.sess.Snapshot()
	if !snap.Last.Cancelled {
		if err := printHookTable(cmd.OutOrStdout(), snap.Entries); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), shell.Status(snap.Last, env.tr))
	return nil
}
