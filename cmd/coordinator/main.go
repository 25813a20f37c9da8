package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/devrev/compactcoord/internal/config"
	"github.com/devrev/compactcoord/internal/handler"
	"github.com/devrev/compactcoord/internal/health"
	"github.com/devrev/compactcoord/internal/leaderlock"
	"github.com/devrev/compactcoord/internal/membership"
	"github.com/devrev/compactcoord/internal/metrics"
	"github.com/devrev/compactcoord/internal/rpccodec"
	"github.com/devrev/compactcoord/internal/rpcdial"
	"github.com/devrev/compactcoord/internal/rpcinterceptor"
	"github.com/devrev/compactcoord/internal/service"
	"github.com/devrev/compactcoord/pkg/coordinatorpb"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("starting compactcoord")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("listen_host", cfg.Server.ListenHost),
		zap.Int("listen_port", cfg.Server.ListenPort),
		zap.Strings("zk_hosts", cfg.ZooKeeper.Hosts))

	m := metrics.NewMetrics()
	logger.Info("metrics initialized")

	advertise := fmt.Sprintf("%s:%d", cfg.Server.ListenHost, cfg.Server.ListenPort)
	lock, err := leaderlock.NewZKLock(cfg.ZooKeeper.Hosts, cfg.ZooKeeper.LockPath, advertise, cfg.ZooKeeper.SessionTimeout, logger)
	if err != nil {
		logger.Fatal("failed to construct leader lock", zap.Error(err))
	}

	ctx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	logger.Info("acquiring leader lock")
	if err := lock.Acquire(ctx); err != nil {
		logger.Fatal("failed to acquire leader lock", zap.Error(err))
	}

	watcher, err := membership.NewZKWatcher(cfg.ZooKeeper.Hosts, cfg.ZooKeeper.TserverPath, cfg.ZooKeeper.SessionTimeout, logger)
	if err != nil {
		logger.Fatal("failed to construct membership watcher", zap.Error(err))
	}

	pool := rpcdial.NewPool()
	compactorPool := rpcdial.CompactorPool{Pool: pool}
	orphanSink := service.NewLoggingOrphanSink(logger)
	coord := service.New(service.Config{
		PollInterval:     cfg.Poll.Interval,
		PollConcurrency:  cfg.Poll.Concurrency,
		PollRPCTimeout:   cfg.Poll.RPCTimeout,
		CompletionBudget: cfg.Retry.CompletionBudget,
		InitialBackoff:   cfg.Retry.InitialBackoff,
		MaxBackoff:       cfg.Retry.MaxBackoff,
	}, pool, compactorPool, orphanSink, m, logger)

	go func() {
		if err := coord.Start(ctx, watcher); err != nil {
			logger.Error("membership reactor stopped", zap.Error(err))
		}
	}()

	go func() {
		lockLost := lock.Watch(ctx)
		if err := <-lockLost; err != nil {
			logger.Fatal("leader lock lost, exiting", zap.Error(err))
		}
	}()

	coordHandler := handler.NewCoordinatorHandler(coord, logger)

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(cfg.Server.MaxMessageSize),
		grpc.MaxSendMsgSize(cfg.Server.MaxMessageSize),
		grpc.ForceServerCodec(rpccodec.Codec{}),
		grpc.ChainUnaryInterceptor(
			rpcinterceptor.RequestID(),
			rpcinterceptor.Recovery(logger),
			rpcinterceptor.Logging(logger),
		),
	)
	coordinatorpb.RegisterCoordinatorServer(grpcServer, coordHandler)
	logger.Info("gRPC service registered")

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Path, promhttp.Handler())
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			logger.Info("starting metrics server", zap.String("address", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	healthChecker := health.NewHealthChecker(lock, logger)
	go func() {
		if err := health.StartHealthServer(healthChecker, 8080, logger); err != nil {
			logger.Error("health check server failed", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.ListenHost, cfg.Server.ListenPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal("failed to create listener", zap.Error(err))
	}

	logger.Info("starting gRPC server", zap.String("address", addr))

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- grpcServer.Serve(listener)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", zap.Error(err))
	case sig := <-sigChan:
		logger.Info("received signal", zap.String("signal", sig.String()))
	}

	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		logger.Info("gRPC server stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Warn("gRPC server stop timeout, forcing shutdown")
		grpcServer.Stop()
	}

	cancelRoot()
	coord.Stop()
	pool.Close()
	_ = lock.Release()

	logger.Info("compactcoord stopped")
}
