package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"asset-buyback-api/internal/config"
	"asset-buyback-api/internal/database"
	"asset-buyback-api/internal/handler"
	"asset-buyback-api/internal/qr"
	"asset-buyback-api/internal/router"
	"asset-buyback-api/internal/spreadsheet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "buyback: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buyback",
		Short: "IT asset buyback tracker",
		Long: `buyback tracks hardware assets through the Pending, Approved, In Process and
Completed buyback stages. It serves the HTTP API and runs batch spreadsheet jobs.
Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newExportCmd(),
		newImportCmd(),
	)
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx, appOptions{events: true, autoMigrate: true})
	if err != nil {
		return err
	}
	defer a.close()
	cfg, logger := a.cfg, a.logger

	svc, err := a.service(nil)
	if err != nil {
		return err
	}

	renderer := qr.NewPNGRenderer(cfg.Assets.PublicBaseURL, cfg.Assets.QRSize)
	h := handler.NewAssetHandler(svc, renderer, cfg.Assets.ImportMaxBytes, logger)
	r := router.NewRouter(h, cfg, logger)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.Int("port", cfg.Port),
			zap.String("store", cfg.StoreDriver),
			zap.Int("rate_limit_rps", cfg.Security.RateLimitRPS),
			zap.Int("rate_limit_burst", cfg.Security.RateLimitBurst),
			zap.Bool("cors", cfg.Security.EnableCORS),
			zap.Duration("request_timeout", cfg.Security.RequestTimeout))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Security.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	logger.Info("server exited gracefully")
	return nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.StoreDriver != config.StoreDriverPostgres {
				return fmt.Errorf("migrate requires STORE_DRIVER=%s", config.StoreDriverPostgres)
			}

			applied, err := database.Migrate(cmd.Context(), a.db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var out, tz string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every asset, deleted entries included, to an .xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appOptions{autoMigrate: true})
			if err != nil {
				return err
			}
			defer a.close()

			var loc *time.Location
			if tz != "" {
				if loc, err = time.LoadLocation(tz); err != nil {
					return fmt.Errorf("invalid --tz %q: %w", tz, err)
				}
			}

			svc, err := a.service(loc)
			if err != nil {
				return err
			}
			if out == "" {
				out = svc.ExportFilename()
			}

			file, err := svc.ExportAssets(cmd.Context())
			if err != nil {
				return err
			}
			defer file.Close()

			if err := file.SaveAs(out); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default assets-YYYY-MM-DD.xlsx)")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA time zone for Created At and Updated At (default EXPORT_TIMEZONE)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create and update assets from an .xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appOptions{autoMigrate: true})
			if err != nil {
				return err
			}
			defer a.close()

			svc, err := a.service(nil)
			if err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			result, err := svc.ImportAssets(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printImportResult(cmd, result)
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "Workbook to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func printImportResult(cmd *cobra.Command, result *spreadsheet.ImportResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "imported: %d succeeded, %d failed\n", result.Success, result.Failed)
	for _, msg := range result.Errors {
		fmt.Fprintln(w, "  "+msg)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d row(s) failed", result.Failed)
	}
	return nil
}
