package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemagen"
	"github.com/tordrt/schemagen/internal/persist"
	"github.com/tordrt/schemagen/internal/schema"
	"github.com/tordrt/schemagen/internal/server"
	"github.com/tordrt/schemagen/internal/store"
)

var (
	addr        string
	serveFamily string
	seedProject string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a workspace over the sync API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: from config, :8080)")
	serveCmd.Flags().StringVarP(&serveFamily, "family", "f", "", "Database family of the workspace (default: from config)")
	serveCmd.Flags().StringVarP(&seedProject, "project", "p", "", "Project file to start from when storage is empty")
}

// warnNotifier prints store warnings to the terminal
type warnNotifier struct {
	w io.Writer
}

func (n warnNotifier) Warn(title, message string) {
	fmt.Fprintf(n.w, "%s %s\n", yellow(title+":"), message)
}

func runServe(cmd *cobra.Command, args []string) error {
	fam, err := resolveFamily(serveFamily)
	if err != nil {
		return err
	}
	listen := addr
	if listen == "" {
		listen = cfg.Server.Addr
	}

	var initial *schema.Workspace
	if seedProject != "" {
		doc, err := schemagen.LoadProject(seedProject)
		if err != nil {
			return err
		}
		initial = &schema.Workspace{Project: doc.Project}
	}

	bunt, err := persist.OpenBunt(persist.BuntConfig{
		Path:     cfg.Storage.Path,
		MaxBytes: cfg.Storage.MaxBytes,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := bunt.Close(); err != nil {
			warnf(cmd, "failed to close storage: %v", err)
		}
	}()

	st := store.New(store.Options{
		Family:    fam,
		History:   cfg.History,
		Persister: server.Metered(bunt),
		Notifier:  warnNotifier{w: cmd.ErrOrStderr()},
		Logger:    logger.Named("store"),
		Workspace: initial,
	})
	srv := server.New(server.Options{
		Store:       st,
		Connections: cfg.Connections,
		Logger:      logger.Named("server"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s workspace on %s\n", fam, cyan(listen))
	return srv.ListenAndServe(ctx, listen)
}
