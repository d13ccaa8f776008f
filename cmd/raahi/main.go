package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"raahi/internal/cache"
	"raahi/internal/channel"
	"raahi/internal/config"
	"raahi/internal/domain"
	"raahi/internal/engine"
	"raahi/internal/sampler"
	"raahi/internal/session"
	"raahi/pkg/geoloc"
	"raahi/pkg/trackerapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting raahi client",
		"log_level", cfg.LogLevel.String(),
		"server_url", cfg.ServerURL,
		"socket_url", cfg.SocketURL,
		"role", cfg.Role,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var api engine.RouteAPI = trackerapi.New(cfg.ServerURL)
	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Warn("redis unavailable, running without roster cache", "error", err)
		} else {
			defer redisCache.Close()
			api = cache.NewCachedAPI(api, redisCache, cfg.CacheTTL, logger)
		}
	}

	chCfg := channel.DefaultConfig()
	chCfg.ReconnectMin = cfg.ReconnectMin
	chCfg.ReconnectMax = cfg.ReconnectMax
	ch := channel.New(cfg.SocketURL, chCfg, logger)

	source := geoloc.NewSimulatedSource(
		domain.Coordinate{Lat: cfg.StartLat, Lng: cfg.StartLng},
		cfg.SimStep,
		0,
	)
	smp := sampler.New(source, sampler.Config{
		DriverInterval:   cfg.DriverSampleInterval,
		CommuterInterval: cfg.CommuterSampleInterval,
		FixTimeout:       cfg.FixTimeout,
	}, logger)

	eng := engine.New(api, ch, smp, logger)
	eng.SetRenderer(&logRenderer{logger: logger})
	ch.OnFleetUpdate(eng.HandleFleetUpdate)

	go ch.Run(ctx)
	eng.Run(ctx)

	if err := applyStartupRole(eng, cfg, logger); err != nil {
		logger.Error("startup role setup failed", "error", err)
		os.Exit(1)
	}

	if cfg.TrackRouteID != "" {
		if err := eng.SelectRoute(ctx, cfg.TrackRouteID); err != nil {
			logger.Warn("could not track startup route", "route_id", cfg.TrackRouteID, "error", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received", "channel_connected", ch.Connected())
	smp.Stop()
	cancel()

	logger.Info("shutdown complete")
}

func applyStartupRole(eng *engine.Engine, cfg *config.Config, logger *slog.Logger) error {
	switch cfg.Role {
	case "driver":
		if err := eng.ChooseRole(session.RoleDriver); err != nil {
			return err
		}
		if err := eng.Login(cfg.DriverBusID); err != nil {
			return err
		}
		logger.Info("driving", "bus_number", cfg.DriverBusID)
	default:
		if err := eng.ChooseRole(session.RoleCommuter); err != nil {
			return err
		}
	}
	return nil
}
