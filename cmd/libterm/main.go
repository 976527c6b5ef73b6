package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tamsa/libterm/internal/app"
	"github.com/tamsa/libterm/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "libterm: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:           "libterm",
		Short:         "Terminal client for the course library",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/libterm/config.toml)")
	root.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "backend base URL, overrides api_url")
	root.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "state and log directory, overrides data_dir")

	root.AddCommand(newWhoamiCmd(&opts))
	root.AddCommand(newLogoutCmd(&opts))
	root.AddCommand(newPingCmd(&opts))
	root.AddCommand(newLogsCmd(&opts))
	return root
}

func newWhoamiCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the stored session's user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			claims, ok, err := app.Whoami(*opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "not logged in")
				return nil
			}
			fmt.Fprintf(out, "%s (%s)\n", claims.Username, claims.Role)
			return nil
		},
	}
}

func newLogoutCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.Logout(*opts); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newPingCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			message, err := app.Ping(cmd.Context(), *opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), message)
			return nil
		},
	}
}

func newLogsCmd(opts *app.Options) *cobra.Command {
	var (
		lines int
		level string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the most recent log records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(*opts)
			if err != nil {
				return err
			}
			records, err := logging.Tail(cfg.LogPath(), lines, logging.ParseLevel(level))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, record := range records {
				fmt.Fprintln(out, record)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of records to print")
	cmd.Flags().StringVar(&level, "level", "debug", "minimum level: debug, info, warn, error")
	return cmd
}
