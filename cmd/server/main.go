package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/wyatt-harles-1/networth-tracker-sub002/internal/adapter/grpc"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/adapter/repository/postgres"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/config"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/logger"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/scheduler"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/usecase/history"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/usecase/holdings"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/usecase/valuation"
)

func main() {
	configPath := flag.String("config", "config.toml", "Path to the TOML configuration file (optional)")
	flag.Parse()

	// 1. Configuration and logging
	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New(logger.Config{})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	logger.SetGlobalLogger(log)

	// 2. Setup Database
	db, err := postgres.NewDB(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// 3. Initialize Repositories (Postgres)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	priceRepo := postgres.NewPriceRepository(db)
	quoteRepo := postgres.NewQuoteRepository(db)
	dailyValueRepo := postgres.NewDailyValueRepository(db)
	jobRepo := postgres.NewJobRepository(db)

	var realizedGains domain.RealizedGainSource
	switch cfg.Valuation.RealizedGains {
	case config.RealizedGainsTable:
		realizedGains = postgres.NewRealizedGainRepository(db)
	case config.RealizedGainsLots:
		realizedGains = holdings.NewLedgerRealizedGains(accountRepo, transactionRepo, log)
	}

	// 4. Initialize Services (Use Cases)
	method := cfg.Valuation.Method()

	calculator := history.NewCalculator(accountRepo, transactionRepo, priceRepo, quoteRepo, realizedGains,
		dailyValueRepo, jobRepo, method, log)
	calculator.LookbackDays = cfg.Valuation.LookbackDays

	valuationService := valuation.NewValuationService(accountRepo, transactionRepo, priceRepo, quoteRepo, realizedGains,
		dailyValueRepo, method, log)
	valuationService.LookbackDays = cfg.Valuation.LookbackDays

	log.Info().
		Str("cost_basis_method", method.String()).
		Str("realized_gains", cfg.Valuation.RealizedGains).
		Int("lookback_days", cfg.Valuation.LookbackDays).
		Msg("Services initialized")

	// 5. Nightly recalculation
	sched := scheduler.New(log)
	if cfg.Scheduler.Enabled {
		job := scheduler.NewRecalcJob(calculator, transactionRepo, cfg.Scheduler.Days, log)
		if err := sched.AddJob(cfg.Scheduler.Schedule, job); err != nil {
			log.Fatal().Err(err).Msg("Failed to register recalculation job")
		}
		sched.Start()
	}

	// 6. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.UnaryInterceptor(grpcadapter.AuthInterceptor(cfg.Server.APIToken)),
		grpclib.StreamInterceptor(grpcadapter.AuthStreamInterceptor(cfg.Server.APIToken)),
	)

	grpcadapter.RegisterHistoryServiceServer(grpcServer, grpcadapter.NewServer(calculator, valuationService, log))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Server.Addr).Msg("Failed to listen")
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve gRPC server")
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer, healthServer, sched, cfg.Scheduler.Enabled, log)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server, healthServer *health.Server, sched *scheduler.Scheduler, schedulerStarted bool, log zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	healthServer.Shutdown()
	if schedulerStarted {
		// Cancels a running recalculation; its job is left cancelled with a resume marker
		sched.Stop()
	}

	grpcServer.GracefulStop()
	log.Info().Msg("gRPC server stopped")
}
