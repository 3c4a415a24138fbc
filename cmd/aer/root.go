package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	internal "github.com/Nachtalb/aer/aer"
	"github.com/Nachtalb/aer/aer/catalog"
	"github.com/Nachtalb/aer/aer/config"
	"github.com/Nachtalb/aer/aer/server"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	root       string
	address    string
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           internal.DefaultAppName,
		Short:         "Catalog media files under a directory and serve them by category",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default searches ./config.yaml and "+internal.DefaultGlobalConfigFile+")")
	rootCmd.PersistentFlags().StringVarP(&flags.root, "path", "p", "", "catalog root directory (overrides catalog.root)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				addr := a.cfg.Server.Address
				if flags.address != "" {
					addr = flags.address
				}
				srv := server.New(a.service, a.metrics, a.cfg.Catalog.Root, a.logger,
					server.WithHiddenFiles(a.cfg.Catalog.IncludeHidden))
				return srv.ListenAndServe(ctx, addr)
			})
		},
	}
	serveCmd.Flags().StringVarP(&flags.address, "address", "a", "", "listen address (overrides server.address)")

	listCmd := &cobra.Command{
		Use:   "list [category]",
		Short: "List catalog entries, optionally narrowed to a category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				root := a.cfg.Catalog.Root
				var (
					list []catalog.Entry
					err  error
				)
				if len(args) == 1 {
					list, err = a.service.ListByCategory(ctx, root, args[0])
				} else {
					list, err = a.service.ListAll(ctx, root)
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if flags.jsonOutput {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(list)
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, e := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", e.MD5, e.Type, e.Path)
				}
				return tw.Flush()
			})
		},
	}
	listCmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "print entries as JSON")

	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "Print the category table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				infos, err := a.service.Categories()
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, info := range infos {
					fmt.Fprintf(tw, "%s\t%s\t%v\n", info.Name, info.Kind, info.Extensions)
				}
				return tw.Flush()
			})
		},
	}

	rootCmd.AddCommand(serveCmd, listCmd, categoriesCmd)
	return rootCmd
}

// withApp loads config, builds the app and runs fn with a context cancelled on SIGINT/SIGTERM.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(context.Context, *app) error) error {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return err
	}
	if flags.root != "" {
		cfg.Catalog.Root = flags.root
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		a.logger.Error().Err(err).Str("command", cmd.Name()).Msg("Command failed")
		return err
	}
	return nil
}
