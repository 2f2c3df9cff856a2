package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/nawawimhz/surat-generator/config"
	"github.com/nawawimhz/surat-generator/handlers"
	"github.com/nawawimhz/surat-generator/middleware"
	"github.com/nawawimhz/surat-generator/routes"
	"github.com/nawawimhz/surat-generator/services"
	"github.com/nawawimhz/surat-generator/utils/events"
	"github.com/nawawimhz/surat-generator/utils/logger"
	"github.com/nawawimhz/surat-generator/utils/metrics"
	"github.com/nawawimhz/surat-generator/utils/sink"
	"github.com/nawawimhz/surat-generator/utils/storage"
)

const (
	sessionIdleTimeout = 2 * time.Hour
	sessionSweepEvery  = 10 * time.Minute
)

func main() {
	if err := config.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	serverCfg := config.LoadServerConfig()
	renderCfg := config.LoadRenderConfig()
	storageCfg := config.LoadStorageConfig()

	zlog, err := logger.New(serverCfg.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	letterCfg, err := config.LoadLetterConfig(serverCfg.LetterConfigPath)
	if err != nil {
		zlog.Fatal("load letter config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	encoder, err := services.NewGoQREncoder(letterCfg.QR)
	if err != nil {
		zlog.Fatal("init qr encoder", zap.Error(err))
	}
	exporter := sink.NewRodExporter(renderCfg.ChromeURL, zlog)
	defer exporter.Close()

	var artifacts storage.ArtifactStore
	if storageCfg.Enabled() {
		s3Store, err := storage.NewS3Store(ctx, storageCfg, zlog)
		if err != nil {
			zlog.Fatal("init s3 artifact store", zap.Error(err))
		}
		artifacts = s3Store
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	bus := events.NewBus(256)
	go bus.Run(ctx, m.Observe, logEvent(zlog))

	pipeline := &services.Pipeline{
		Renderer:   services.NewRenderer(letterCfg),
		Encoder:    encoder,
		Exporter:   exporter,
		Bus:        bus,
		Logger:     zlog,
		QROrdering: renderCfg.QROrdering,
	}
	sessions := services.NewSessionStore(pipeline)
	go sessions.RunSweeper(ctx, sessionSweepEvery, sessionIdleTimeout)

	app := routes.NewApp(routes.Deps{
		Letters:  handlers.NewLetterHandler(sessions, letterCfg, artifacts, zlog),
		Drafts:   middleware.NewDraftSessionStore(serverCfg.Environment == "production"),
		Registry: reg,
		Logger:   zlog,
	})

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("shutdown", zap.Error(err))
		}
	}()

	zlog.Info("API running",
		zap.String("port", serverCfg.Port),
		zap.String("env", serverCfg.Environment),
		zap.String("qr_ordering", renderCfg.QROrdering),
		zap.Bool("s3", storageCfg.Enabled()))
	if err := app.Listen(":" + serverCfg.Port); err != nil {
		zlog.Fatal("listen", zap.Error(err))
	}
}

func logEvent(zlog *zap.Logger) func(events.RenderEvent) {
	return func(e events.RenderEvent) {
		fields := []zap.Field{
			zap.String("event", string(e.Type)),
			zap.String("session", e.SessionID),
			zap.String("letter_type", string(e.LetterType)),
		}
		if e.Seconds > 0 {
			fields = append(fields, zap.Float64("seconds", e.Seconds))
		}
		if e.Err != nil {
			fields = append(fields, zap.Error(e.Err))
		}
		zlog.Debug("render event", fields...)
	}
}
