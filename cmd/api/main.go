package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpadp "p2p-lending/internal/adapter/http"
	idem "p2p-lending/internal/adapter/middleware"
	"p2p-lending/internal/adapter/repository/memory"
	"p2p-lending/internal/adapter/repository/mysql"
	"p2p-lending/internal/config"
	"p2p-lending/internal/domain/event"
	domainrisk "p2p-lending/internal/domain/riskprofile"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/internal/infrastructure/cache"
	"p2p-lending/internal/infrastructure/db"
	"p2p-lending/internal/infrastructure/lock"
	"p2p-lending/internal/infrastructure/logging"
	"p2p-lending/internal/infrastructure/metrics"
	"p2p-lending/internal/infrastructure/notify"
	"p2p-lending/internal/infrastructure/scheduler"
	"p2p-lending/internal/usecase/funding"
	"p2p-lending/internal/usecase/loan"
	"p2p-lending/internal/usecase/payment"
	"p2p-lending/internal/usecase/riskprofile"
	"p2p-lending/internal/usecase/scoring"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tx, reads, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var pub event.Publisher = notify.NewLog(log)
	if len(cfg.KafkaBrokers) > 0 {
		k := notify.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer func() {
			if err := k.Close(); err != nil {
				log.Warn("kafka close", "err", err)
			}
		}()
		pub = k
	}

	questionnaire := domainrisk.Default()
	if cfg.QuestionnaireFile != "" {
		b, err := os.ReadFile(cfg.QuestionnaireFile)
		if err != nil {
			return fmt.Errorf("read questionnaire: %w", err)
		}
		if questionnaire, err = domainrisk.Parse(b); err != nil {
			return err
		}
	}
	riskUC := riskprofile.NewUsecase(questionnaire, reads.Profiles, log)

	fundingOpts := []funding.Option{funding.WithMetrics(m), funding.WithLogger(log)}
	if cfg.EnforceInvestorLimits {
		fundingOpts = append(fundingOpts, funding.WithLimitChecker(riskUC))
	}

	var mutating []echo.MiddlewareFunc
	if cfg.RedisAddr != "" {
		rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		fundingOpts = append(fundingOpts, funding.WithLocker(lock.NewRedis(rdb, cfg.LockTTL())))
		mutating = append(mutating, idem.Idempotent(rdb, cfg.IdempotencyTTL(), log))
	} else {
		log.Warn("REDIS_ADDR not set: idempotency keys are not enforced")
	}

	fundingUC := funding.NewUsecase(tx, reads, pub, fundingOpts...)
	paymentUC := payment.NewUsecase(tx, pub,
		payment.WithDefaultAfter(cfg.DefaultAfterOverdue), payment.WithMetrics(m), payment.WithLogger(log))

	sched := scheduler.New(log, 5*time.Minute)
	if cfg.OverdueSweepCron != "" {
		err := sched.Add(cfg.OverdueSweepCron, "overdue-sweep", func(ctx context.Context) error {
			res, err := paymentUC.SweepOverdue(ctx)
			if res != nil && (res.Overdue > 0 || len(res.Defaulted) > 0) {
				log.InfoContext(ctx, "overdue sweep", "overdue", res.Overdue, "defaulted", res.Defaulted)
			}
			return err
		})
		if err != nil {
			return err
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Recover(), middleware.RequestID(), logging.RequestLogger(log))

	httpadp.Routes{
		Health:      httpadp.NewHandler(),
		Loans:       httpadp.NewLoanHandler(loan.NewUsecase(reads, loan.WithLogger(log))),
		Investments: httpadp.NewInvestmentHandler(fundingUC),
		Payments:    httpadp.NewPaymentHandler(paymentUC),
		Scores:      httpadp.NewScoreHandler(scoring.NewUsecase(nil, m)),
		Profiles:    httpadp.NewRiskProfileHandler(riskUC),
		Metrics:     metrics.Handler(reg),
	}.Register(e, mutating...)

	sched.Start()
	addr := ":" + cfg.AppPort
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "db", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	return e.Shutdown(shutdownCtx)
}

// openStore returns the unit of work and autocommit repositories for the
// configured driver, plus a close func.
func openStore(cfg *config.Config, log *slog.Logger) (uow.UnitOfWork, uow.Repos, func(), error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Warn("DB_DRIVER=memory: data is lost on restart")
		s := memory.NewStore()
		return s, s.Repos(), func() {}, nil
	}
	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		return nil, uow.Repos{}, nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, uow.Repos{}, nil, err
	}
	closeFn := func() { _ = sqlDB.Close() }
	if err := mysql.Migrate(gdb); err != nil {
		closeFn()
		return nil, uow.Repos{}, nil, fmt.Errorf("migrate: %w", err)
	}
	return mysql.NewGormUoW(gdb), mysql.NewRepos(gdb), closeFn, nil
}
