package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/amalthea-hq/expensehub/internal/application/approval"
	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/application/service"
	"github.com/amalthea-hq/expensehub/internal/config"
	"github.com/amalthea-hq/expensehub/internal/infrastructure/directory"
	"github.com/amalthea-hq/expensehub/internal/infrastructure/email"
	"github.com/amalthea-hq/expensehub/internal/infrastructure/external/exchangerate"
	"github.com/amalthea-hq/expensehub/internal/infrastructure/external/openai"
	"github.com/amalthea-hq/expensehub/internal/infrastructure/external/restcountries"
	"github.com/amalthea-hq/expensehub/internal/infrastructure/persistence/repository"
	"github.com/amalthea-hq/expensehub/internal/infrastructure/persistence/sqlite"
	"github.com/amalthea-hq/expensehub/internal/infrastructure/scheduler"
	"github.com/amalthea-hq/expensehub/internal/infrastructure/storage"
	httpapi "github.com/amalthea-hq/expensehub/internal/interfaces/http"
	"github.com/amalthea-hq/expensehub/pkg/database"
	"github.com/amalthea-hq/expensehub/pkg/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting ExpenseHub server")

	for _, dir := range []string{filepath.Dir(cfg.Database.Path), cfg.Storage.BaseDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	rawDB, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer rawDB.Close()

	migrator := database.NewMigrator(rawDB, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	db := sqlite.NewDB(rawDB.DB, logger)

	companyRepo := repository.NewCompanyRepository(db, logger)
	userRepo := repository.NewUserRepository(db, logger)
	expenseRepo := repository.NewExpenseRepository(db, logger)
	policyRepo := repository.NewPolicyRepository(db, logger)
	actionRepo := repository.NewActionRepository(db, logger)
	countryRepo := repository.NewCountryRepository(db, logger)
	rateRepo := repository.NewRateRepository(db, logger)

	dir := directory.New(userRepo)

	countrySource := restcountries.NewClient(cfg.Currency.CountriesURL, cfg.Currency.FetchTimeout, logger)
	rateSource := exchangerate.NewClient(cfg.Currency.RatesURL, cfg.Currency.FetchTimeout, logger)
	extractor := openai.NewReceiptExtractor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Temperature, logger)
	fileStorage := storage.NewLocalFileStorage(cfg.Storage.BaseDir, logger)

	var mailer port.MailSender
	if cfg.SMTP.Host != "" {
		sender, err := email.NewSender(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create email sender: %w", err)
		}
		mailer = sender
	} else {
		logger.Warn("SMTP host not configured, email notifications disabled")
	}

	sugar := logger.Sugar()

	currencyService := service.NewCurrencyService(countryRepo, rateRepo, countrySource, rateSource, sugar)
	userService := service.NewUserService(companyRepo, userRepo, countryRepo, mailer, db, sugar)
	expenseService := service.NewExpenseService(expenseRepo, actionRepo, userRepo, companyRepo, currencyService, mailer, sugar)
	policyService := service.NewPolicyService(policyRepo, userRepo, db, sugar)
	receiptService := service.NewReceiptService(fileStorage, extractor, sugar)
	reportService := service.NewReportService(expenseRepo, userRepo, companyRepo, sugar)

	selector := approval.NewSelector(policyRepo, dir, logger)
	resolver := approval.NewResolver(dir)
	controller := approval.NewController(expenseRepo, actionRepo, selector, resolver, db, logger)

	refreshScheduler := scheduler.New(currencyService, func(ctx context.Context) []string {
		return cfg.Currency.RefreshBases
	}, logger)
	if err := refreshScheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer refreshScheduler.Stop()

	server := httpapi.NewServer(
		httpapi.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		userService,
		expenseService,
		policyService,
		receiptService,
		reportService,
		currencyService,
		controller,
		sugar,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("ExpenseHub server stopped")
	return nil
}
