package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jengzang/geolife-tracks/internal/api"
	"github.com/jengzang/geolife-tracks/internal/handler"
	"github.com/jengzang/geolife-tracks/internal/service"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "geolife",
		Short:         "Ingest GeoLife trajectories and reconcile transportation-mode labels",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newRunCmd(),
		newIngestCmd(),
		newReconcileCmd(),
		newVerifyCmd(),
		newReportCmd(),
		newServeCmd(),
		newMigrateCmd(),
	)
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [dataset-root]",
		Short: "Reset the schema, ingest, reconcile labels and verify",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				layout := a.layout(args)
				if err := a.prepareSchema(ctx, a.cfg.ResetSchema); err != nil {
					return err
				}

				summary, err := a.pipeline(layout).Run(ctx)
				if err != nil {
					return err
				}
				reconciled, err := a.reconciler(layout).Run(ctx)
				if err != nil {
					return err
				}
				verified, err := a.verifier(layout).Run(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				printIngestSummary(out, summary)
				printReconcileReport(out, reconciled)
				printVerificationReport(out, verified)
				return nil
			})
		},
	}
}

func newIngestCmd() *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "ingest [dataset-root]",
		Short: "Load users, activities and track points",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				if err := a.prepareSchema(ctx, a.cfg.ResetSchema && !keep); err != nil {
					return err
				}
				summary, err := a.pipeline(a.layout(args)).Run(ctx)
				if err != nil {
					return err
				}
				printIngestSummary(cmd.OutOrStdout(), summary)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "Do not reset the schema before ingesting")
	return cmd
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [dataset-root]",
		Short: "Assign transportation modes from label files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				report, err := a.reconciler(a.layout(args)).Run(ctx)
				if err != nil {
					return err
				}
				printReconcileReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
}

var errMismatches = errors.New("verification found mismatches")

func newVerifyCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "verify [dataset-root]",
		Short: "Re-check persisted modes against the label files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				report, err := a.verifier(a.layout(args)).Run(ctx)
				if err != nil {
					return err
				}
				printVerificationReport(cmd.OutOrStdout(), report)
				if strict && !report.OK() {
					return errMismatches
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with status 1 when any mismatch is found")
	return cmd
}

func newReportCmd() *cobra.Command {
	var (
		params service.ReportParams
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:       "report <name>",
		Short:     "Print an analytical report",
		Long:      "Print an analytical report. Known reports: " + fmt.Sprint(service.ReportNames),
		Args:      cobra.ExactArgs(1),
		ValidArgs: service.ReportNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				result, err := a.reportService().Run(ctx, args[0], params)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(result)
				}
				printReport(out, args[0], result)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&params.Limit, "limit", service.DefaultTopN, "Rows of top-N reports and table dumps")
	f.StringVar(&params.Mode, "mode", "", "Transportation mode (mode-users: taxi, distance: walk)")
	f.StringVar(&params.UserID, "user", "112", "User id of the distance report")
	f.IntVar(&params.Year, "year", 2008, "Year of the distance report")
	f.Float64Var(&params.Lat, "lat", 39.916, "Geofence latitude")
	f.Float64Var(&params.Lon, "lon", 116.397, "Geofence longitude")
	f.Float64Var(&params.Tolerance, "tolerance", service.DefaultGeofenceTolerance, "Geofence half-width in degrees")
	f.BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only report API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				if err := a.prepareSchema(ctx, false); err != nil {
					return err
				}
				if a.cfg.LogMode == "production" {
					gin.SetMode(gin.ReleaseMode)
				}
				router := api.SetupRouter(handler.NewReportHandler(a.reportService()), a.log)
				srv := &http.Server{Addr: a.cfg.Port, Handler: router}

				errCh := make(chan error, 1)
				go func() {
					a.log.Info("server starting", "addr", a.cfg.Port)
					errCh <- srv.ListenAndServe()
				}()

				select {
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				case <-ctx.Done():
				}

				a.log.Info("server shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				return a.prepareSchema(ctx, reset)
			})
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Drop all tables first")
	return cmd
}
