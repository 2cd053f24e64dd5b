// Package serve implements the HTTP API server command.
package serve

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/skiff-cd/skiff/cmd/utils"
	"github.com/skiff-cd/skiff/internal/app"
	"github.com/skiff-cd/skiff/internal/handlers"
)

func NewCmdServe() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Skiff HTTP API server",
		Run: func(cmd *cobra.Command, args []string) {
			config := app.GetConfig()

			r := chi.NewRouter()
			r.Use(middleware.Logger)

			deploymentHandlers := handlers.NewDeploymentHandlers(app.GetUseCaseService())
			deploymentHandlers.RegisterRoutes(r)

			r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Failed to write health check response",
						"layer", "main",
						"operation", "health_check",
						"error", err)
				}
			})

			address := fmt.Sprintf("%s:%d", config.HTTPHost, config.HTTPPort)
			slog.Info("Server starting", "address", fmt.Sprintf("http://%s", address))
			if err := http.ListenAndServe(address, r); err != nil {
				utils.HandleCommandError("starting HTTP server", err)
			}
		},
	}
}
