package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/vogtb/excel-clone/packages/server"
	"github.com/vogtb/excel-clone/packages/sheetstore"
	"github.com/vogtb/excel-clone/packages/spreadsheet"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var address, dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sheet API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}
			if dbPath != "" {
				cfg.Storage.Path = dbPath
			}

			store, err := sheetstore.Open(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			gin.SetMode(gin.ReleaseMode)
			srv := server.New(store,
				server.WithEvaluator(spreadsheet.NewEvaluator(spreadsheet.WithLogger(logger))),
				server.WithLogger(logger),
				server.WithDefaultGrid(cfg.Grid.Rows, cfg.Grid.Cols),
			)

			httpServer := &http.Server{
				Addr:         cfg.Server.Address,
				Handler:      srv.Handler(),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "address", cfg.Server.Address, "db", cfg.Storage.Path)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides server.address)")
	cmd.Flags().StringVar(&dbPath, "db", "", "database file (overrides storage.path)")
	return cmd
}
