package service

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/core"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/cmd/service/handler"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/safe"
)

func NewCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "service",
		Short: "Run the support chat service",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := core.MustLoadBaseConfig(configPath)
			Run(cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("KB_CONFIG_PATH"), "path to the service config file")
	return cmd
}

func Run(cfg core.Config) {
	appCore := core.MustSetupCore(cfg)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	httpSrv := &handler.HttpSrv{
		Core:   appCore,
		Engine: engine,
	}
	serve(httpSrv)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: engine,
	}

	go safe.Run(func() {
		slog.Info("http service started", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http service failed", slog.Any("error", err))
			os.Exit(1)
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", slog.Any("error", err))
	}
}
