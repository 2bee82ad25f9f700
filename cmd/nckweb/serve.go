package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	nckweb "github.com/NickCis/nckweb.com.ar"
	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the site and serve a local preview",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConf(cmd)
		if err != nil {
			return err
		}
		port, _ := cmd.Flags().GetString("port")
		watch, _ := cmd.Flags().GetBool("watch")

		ctx := cmd.Context()
		if err := renderSite(ctx, conf); err != nil {
			return err
		}
		if watch {
			w, err := newWatcher(ctx, conf)
			if err != nil {
				return err
			}
			defer w.Close()
		}
		ln, err := net.Listen("tcp", ":"+port)
		if err != nil {
			return errors.WithStack(err)
		}
		return serveSite(ctx, ln, conf.OutDir)
	},
}

// serveSite serves dir on ln until ctx is done, then shuts the server down.
func serveSite(ctx context.Context, ln net.Listener, dir string) error {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(dir)))
	srv := &http.Server{Handler: mux}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	logger.Info("Serving preview", "dir", dir, "addr", "http://"+ln.Addr().String())

	select {
	case err := <-errc:
		return errors.WithStack(err)
	case <-ctx.Done():
	}

	logger.Info("Stopping preview")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.WithStack(srv.Shutdown(shutdownCtx))
}

// watchDirs lists the directories whose changes trigger a rebuild. Optional
// directories are only watched when they exist.
func watchDirs(conf *nckweb.SiteConf) []string {
	var dirs []string
	for _, dir := range []string{conf.ContentDir, conf.AssetsDir, conf.StaticDir, conf.TemplateDir} {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

// newWatcher rebuilds the site whenever a file under the content, asset,
// static or template directories changes. Build errors are logged and the
// previous output is kept.
func newWatcher(ctx context.Context, conf *nckweb.SiteConf) (*watcher.Watcher, error) {
	w := watcher.New()
	w.SetMaxEvents(1)

	for _, dir := range watchDirs(conf) {
		if err := w.AddRecursive(dir); err != nil {
			return nil, errors.WithStack(err)
		}
		logger.Info("Watching for changes", "dir", dir)
	}

	go func() {
		for {
			select {
			case ev := <-w.Event:
				logger.Info("Change detected, rebuilding", "path", ev.Path)
				if err := renderSite(ctx, conf); err != nil {
					logger.Error("Rebuild failed", "error", err)
				}
			case err := <-w.Error:
				logger.Error("Watcher error", "error", err)
			case <-w.Closed:
				return
			case <-ctx.Done():
				w.Close()
				return
			}
		}
	}()

	go func() {
		if err := w.Start(time.Millisecond * 200); err != nil {
			logger.Error("Watcher stopped", "error", err)
		}
	}()
	return w, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8000", "Port to serve the preview on")
	serveCmd.Flags().Bool("watch", false, "Rebuild the site when content changes")
	serveCmd.Flags().Bool("drafts", false, "Include posts with the 'draft' flag.")
}
