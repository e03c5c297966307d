package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/platform/config"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/platform/logging"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server は HTTP アプリケーションとヘルスチェック用 gRPC サーバーのライフサイクルを管理します。
type Server struct {
	cfg    config.ServerConfig
	app    *fiber.App
	grpc   *grpc.Server
	health *health.Server
	logger logging.Logger
}

// New は fiber アプリケーションと grpc.health.v1.Health を公開する gRPC サーバーを束ねます。
func New(cfg config.ServerConfig, app *fiber.App, logger logging.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}

	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &Server{
		cfg:    cfg,
		app:    app,
		grpc:   srv,
		health: hs,
		logger: logger.With("component", "server"),
	}
}

// Run は設定されたアドレスで待ち受けを開始し、コンテキストがキャンセルされるまでブロックします。
func (s *Server) Run(ctx context.Context) error {
	httpLn, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.ListenAddr, err)
	}

	healthLn, err := net.Listen("tcp", s.cfg.HealthAddr)
	if err != nil {
		_ = httpLn.Close()
		return fmt.Errorf("listen on %s: %w", s.cfg.HealthAddr, err)
	}

	return s.Serve(ctx, httpLn, healthLn)
}

// Serve は与えられたリスナーで HTTP と gRPC を提供します。いずれかが失敗するか ctx が終了すると両方を停止します。
func (s *Server) Serve(ctx context.Context, httpLn, healthLn net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	g.Go(func() error {
		s.logger.Info(gctx, "http server listening", "addr", httpLn.Addr().String())
		if err := s.app.Listener(httpLn); err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.logger.Info(gctx, "health server listening", "addr", healthLn.Addr().String())
		if err := s.grpc.Serve(healthLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.shutdown(context.WithoutCancel(ctx))
		return nil
	})

	return g.Wait()
}

func (s *Server) shutdown(ctx context.Context) {
	s.health.Shutdown()

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "http shutdown failed", "error", err)
	}
	s.grpc.GracefulStop()
	s.logger.Info(ctx, "server stopped")
}
