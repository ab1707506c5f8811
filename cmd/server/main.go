package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"gatehouse/internal/admission"
	"gatehouse/internal/idtoken"
	"gatehouse/internal/platform/config"
	"gatehouse/internal/platform/httpserver"
	"gatehouse/internal/platform/logger"
	"gatehouse/internal/platform/metrics"
	httptransport "gatehouse/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	for _, w := range cfg.Validate() {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	router := httptransport.NewRouter(httptransport.Deps{
		Verifier: tokenVerifier(ctx, cfg, log),
		Admission: admission.NewVerifier(cfg.RecaptchaSecret,
			admission.WithVerifyURL(cfg.RecaptchaVerifyURL),
			admission.WithVerifierLogger(log),
		),
		Metrics:     m,
		Gatherer:    reg,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log,
	})
	srv := httpserver.New(cfg.Addr, otelhttp.NewHandler(router, "gatehouse"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, log)
	})
	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func tokenVerifier(ctx context.Context, cfg config.Server, log *slog.Logger) *idtoken.MiddlewareAdapter {
	if cfg.FirebaseProjectID != "" {
		log.Info("verifying Firebase ID tokens", "project_id", cfg.FirebaseProjectID)
		return idtoken.NewMiddlewareAdapter(idtoken.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID))
	}
	log.Warn("verifying HS256 development tokens", "issuer", cfg.TokenIssuer)
	return idtoken.NewMiddlewareAdapter(idtoken.NewHMACService(cfg.JWTSigningKey, cfg.TokenIssuer, cfg.TokenAudience))
}
