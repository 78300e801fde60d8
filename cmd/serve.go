package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kiesman99/mapimage/internal/app"
	"github.com/kiesman99/mapimage/internal/log"
	"github.com/kiesman99/mapimage/internal/server"
)

const version = "1.0.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the image overlay API",
	Long: `Start an HTTP server that holds one georeferenced image overlay.

Map clients read the layer stack from /api/v1/map, load the raster from
/api/v1/overlay/image and report drag ticks to /api/v1/overlay/translate;
every tick moves the polygon and republishes the display extent.

Examples:
  # Start server on default port 8080
  mapimage serve --image cat.png

  # Start server with custom bind address and initial polygon
  mapimage serve --image cat.png --bbox 5,5,25,25 --bind 0.0.0.0 --port 3000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")

	// Map configuration
	serveCmd.Flags().String("basemap", app.DefaultConfig().BasemapURL, "basemap tile URL template")
	serveCmd.Flags().String("center", "0,0", "initial view center as 'lon,lat'")
	serveCmd.Flags().Float64("zoom", 2, "initial view zoom")

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("map.basemap", serveCmd.Flags().Lookup("basemap"))
	viper.BindPFlag("map.center", serveCmd.Flags().Lookup("center"))
	viper.BindPFlag("map.zoom", serveCmd.Flags().Lookup("zoom"))
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")

	addr := fmt.Sprintf("%s:%d", bind, port)

	cfg, err := configFromViper()
	if err != nil {
		return err
	}
	cfg.LayerURL = "/api/v1/overlay/image"
	cfg.BasemapURL = viper.GetString("map.basemap")
	cfg.Zoom = viper.GetFloat64("map.zoom")
	if cfg.Center, err = app.ParseCenter(viper.GetString("map.center")); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.NewRouter(server.NewServer(version, application), timeout),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()

		fmt.Fprintf(cmd.ErrOrStderr(), "\nShutting down server...\n")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "Starting mapimage server on %s\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Health check: http://%s/api/v1/health\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Overlay: http://%s/api/v1/overlay\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Metrics: http://%s/metrics\n", addr)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}

	return nil
}
