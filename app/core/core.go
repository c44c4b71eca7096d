package core

import (
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/core/srv"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/store"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/store/redisstore"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/ai/openai"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/igot"
)

// Core is the dependency container handed to every logic struct.
type Core struct {
	cfg     Config
	store   store.Provider
	srv     *srv.Srv
	metrics *Metrics
}

func MustSetupCore(cfg Config) *Core {
	setupLogger(cfg.Log)

	provider, err := redisstore.NewProvider(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect redis", slog.String("address", cfg.Redis.Address), slog.Any("error", err))
		os.Exit(1)
	}

	core := SetupCoreWith(cfg, provider, srv.Setup(
		openai.New(cfg.AI),
		igot.NewClient(cfg.Igot),
	))

	slog.Info("core ready",
		slog.String("app_name", cfg.AppName),
		slog.String("addr", cfg.Addr),
	)
	return core
}

// SetupCoreWith assembles a Core from already-built dependencies.
func SetupCoreWith(cfg Config, provider store.Provider, service *srv.Srv) *Core {
	return &Core{
		cfg:     cfg,
		store:   provider,
		srv:     service,
		metrics: setupMetrics(cfg.AppName),
	}
}

func (s *Core) Cfg() Config {
	return s.cfg
}

func (s *Core) Store() store.Provider {
	return s.store
}

func (s *Core) Srv() *srv.Srv {
	return s.srv
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func setupLogger(cfg LogConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Path == "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, opts)))
		return
	}

	writer := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    100,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(writer, opts)))
}
