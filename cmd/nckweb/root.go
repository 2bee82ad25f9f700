package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	nckweb "github.com/NickCis/nckweb.com.ar"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	logger  = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "nckweb",
	Short: "nckweb - builds the nckweb.com.ar blog",
	Long: `nckweb reads markdown posts and image assets and writes a static
site with an Atom feed, a sitemap and a web-app manifest.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./nckweb.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
}

func loadConf(cmd *cobra.Command) (*nckweb.SiteConf, error) {
	conf, err := nckweb.LoadConf(cfgFile)
	if err != nil {
		return nil, err
	}
	if drafts, _ := cmd.Flags().GetBool("drafts"); drafts {
		conf.Drafts = true
	}
	return conf, nil
}
