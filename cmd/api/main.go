package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/api"
	"github.com/99minutos/accounts-api/internal/api/handler"
	"github.com/99minutos/accounts-api/internal/core/access"
	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
	"github.com/99minutos/accounts-api/internal/core/service"
	"github.com/99minutos/accounts-api/internal/core/token"
	"github.com/99minutos/accounts-api/internal/infrastructure/config"
	"github.com/99minutos/accounts-api/internal/infrastructure/db/mongo"
	"github.com/99minutos/accounts-api/internal/infrastructure/db/postgres"
	"github.com/99minutos/accounts-api/internal/infrastructure/db/redis"
	"github.com/99minutos/accounts-api/internal/infrastructure/mail"
	"github.com/99minutos/accounts-api/internal/infrastructure/queue"
	"github.com/99minutos/accounts-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type store struct {
	users     ports.UserRepository
	blacklist ports.BlacklistRepository
	pinger    handler.Pinger
	close     func(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Pretty: true}).Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "accounts-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("closing store")
		}
	}()

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	tasks := redis.NewTaskStore(rdb)
	broker := redis.NewBroker(rdb, tasks, domain.QueueSendPasswordResetEmail)

	issuer := token.NewIssuer(token.Config{
		Secret:     []byte(cfg.Token.Secret),
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
	}, st.blacklist)

	accounts := service.NewAccountService(st.users, issuer, broker, tasks,
		service.AccountConfig{PageSize: cfg.PageSize}, logger.Component("accounts"))

	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	notifications := service.NewNotificationService(st.users, mailer, logger.Component("notifications"))

	dispatcher := queue.NewDispatcher(cfg.Workers, broker, tasks, logger.Component("dispatcher"))
	dispatcher.Handle(domain.JobSendPasswordResetEmail, notifications.SendPasswordReset)
	dispatcher.Start(ctx)

	e := api.NewRouter(api.Deps{
		Accounts: accounts,
		Guard:    access.NewGuard(issuer, st.users),
		Health: map[string]handler.Pinger{
			"store": st.pinger,
			"redis": redis.Pinger{Client: rdb},
		},
		Logger:     logger.Component("http"),
		EnableDocs: cfg.IsDevelopment(),
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreKind).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			_ = e.Close()
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	dispatcher.Wait()
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.StoreKind {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Msg("postgres store ready")
		return &store{
			users:     postgres.NewUserRepository(db),
			blacklist: postgres.NewBlacklistRepository(db),
			pinger:    postgres.Pinger{DB: db},
			close:     func(context.Context) error { return db.Close() },
		}, nil
	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		users := mongo.NewUserRepository(db)
		blacklist := mongo.NewBlacklistRepository(db)
		if err := mongo.EnsureIndexes(ctx, users, blacklist); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo store ready")
		return &store{
			users:     users,
			blacklist: blacklist,
			pinger:    mongo.Pinger{Client: client},
			close:     client.Disconnect,
		}, nil
	}
}
