package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/adapter/repository/postgres"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/config"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/logger"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/usecase/history"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/usecase/holdings"
	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/usecase/valuation"
)

var configPath = flag.String("config", "config.toml", "Path to the TOML configuration file (optional)")

// app holds the services a command needs
type app struct {
	db         *postgres.DB
	log        zerolog.Logger
	calculator *history.Calculator
	valuation  *valuation.ValuationService
}

// openApp loads configuration and connects to the database
func openApp() (*app, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})

	db, err := postgres.NewDB(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

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

	calculator := history.NewCalculator(accountRepo, transactionRepo, priceRepo, quoteRepo, realizedGains,
		dailyValueRepo, jobRepo, cfg.Valuation.Method(), log)
	calculator.LookbackDays = cfg.Valuation.LookbackDays

	valuationService := valuation.NewValuationService(accountRepo, transactionRepo, priceRepo, quoteRepo, realizedGains,
		dailyValueRepo, cfg.Valuation.Method(), log)
	valuationService.LookbackDays = cfg.Valuation.LookbackDays

	return &app{
		db:         db,
		log:        log,
		calculator: calculator,
		valuation:  valuationService,
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close database")
	}
}

func parseUser(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("-user is required")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid -user %q: %w", s, err)
	}
	return id, nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
