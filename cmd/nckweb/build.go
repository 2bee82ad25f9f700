package main

import (
	"context"

	nckweb "github.com/NickCis/nckweb.com.ar"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the static site into the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConf(cmd)
		if err != nil {
			return err
		}
		return renderSite(cmd.Context(), conf)
	},
}

func renderSite(ctx context.Context, conf *nckweb.SiteConf) error {
	logger.Info("Writing site", "dir", conf.OutDir)
	site, err := nckweb.Build(ctx, conf, logger)
	if err != nil {
		return err
	}
	logger.Info("Site built", "pages", len(site.Pages()), "artifacts", len(site.Artifacts()))
	return nil
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().Bool("drafts", false, "Include posts with the 'draft' flag.")
}
