package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"phonepe-relay/internal/config"
	"phonepe-relay/internal/domain/ports/adapter"
	"phonepe-relay/internal/infra/adapters/phonepe"
	"phonepe-relay/internal/infra/api"
	"phonepe-relay/internal/infra/db/auditstore"
	"phonepe-relay/internal/infra/db/postgres"
	"phonepe-relay/internal/infra/events"
	"phonepe-relay/internal/infra/redis"
	"phonepe-relay/internal/infra/sched"
	"phonepe-relay/internal/infra/worker"
	"phonepe-relay/internal/usecase"
)

const auditTaskTimeout = 10 * time.Second

// Dependencies holds every long-lived component of the relay.
type Dependencies struct {
	Config *config.Config
	Log    *zerolog.Logger

	Pool    *pgxpool.Pool
	AuditDB *gorm.DB
	Redis   *redis.Client // nil when redis.url is empty
	Events  adapter.EventPublisher

	auditPool *worker.Pool

	Audit        *usecase.AuditUseCase
	Transactions *usecase.TransactionUseCase
	Refunds      *usecase.RefundUseCase
	Reconciler   *sched.PaymentReconciler

	RateLimiting api.RateLimiting
}

// Initialize connects the stores, builds the gateway and wires the use cases.
// On error everything opened so far is closed again.
func Initialize(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (_ *Dependencies, err error) {
	d := &Dependencies{Config: cfg, Log: log}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	d.Pool, err = postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	d.AuditDB, err = auditstore.Open(cfg.AuditDatabase)
	if err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}

	if cfg.Redis.URL != "" {
		d.Redis, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		log.Warn().Msg("redis not configured; rate limits are per process and the reconciler is not coordinated")
	}

	if cfg.Events.Enabled {
		d.Events = events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, log)
	} else {
		d.Events = events.NoopPublisher{}
	}

	gateway, err := phonepe.NewGateway(cfg.Payment.PhonePe, log)
	if err != nil {
		return nil, fmt.Errorf("phonepe gateway: %w", err)
	}

	// audit writes run on their own pool and outlive request contexts
	d.auditPool = worker.NewPool(cfg.Audit.Workers, cfg.Audit.QueueSize, auditTaskTimeout, log)
	d.auditPool.Start(context.Background())

	txns := postgres.NewTransactionRepo(d.Pool)
	refunds := postgres.NewRefundRepo(d.Pool)
	tm := postgres.NewTxManager(d.Pool)

	d.Audit = usecase.NewAuditUseCase(auditstore.NewAuditLogRepo(d.AuditDB), d.auditPool, log)
	d.Transactions = usecase.NewTransactionUseCase(txns, gateway, d.Audit, d.Events, usecase.NewULIDGenerator(), cfg.Payment.PhonePe.AppBaseURL, log)
	d.Refunds = usecase.NewRefundUseCase(refunds, txns, d.Transactions, tm, gateway, d.Audit, d.Events, log)

	var locker redis.Locker = redis.NoopLocker{}
	if d.Redis != nil {
		locker = redis.NewLocker(d.Redis)
	}
	d.Reconciler = sched.NewPaymentReconciler(d.Transactions, txns, locker, cfg.Reconciler, log)

	if cfg.RateLimit.Enabled {
		if d.Redis != nil {
			d.RateLimiting = api.RateLimiting{
				Limiter: redis.NewRateLimiter(d.Redis, cfg.RateLimit.Requests, cfg.RateLimit.Window),
				Backend: "redis",
			}
		} else {
			d.RateLimiting = api.RateLimiting{
				Limiter: api.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
				Backend: "memory",
			}
		}
	}

	return d, nil
}

// Router builds the HTTP surface over the wired use cases.
func (d *Dependencies) Router() http.Handler {
	h := api.NewHandlers(d.Transactions, d.Refunds, d.Log)
	return api.NewRouter(h, d.Config.HTTP, d.RateLimiting, d.Log)
}

// StartBackground launches the helpers that live as long as ctx.
func (d *Dependencies) StartBackground(ctx context.Context) {
	go postgres.ReportPoolStats(ctx, d.Pool, 15*time.Second)

	if ml, ok := d.RateLimiting.Limiter.(*api.MemoryLimiter); ok {
		go ml.Cleanup(ctx, time.Minute)
	}
	if d.Config.Reconciler.Enabled {
		go d.Reconciler.Start(ctx)
	}
}

// Close drains the audit queue before closing the stores it writes to.
// Safe to call on a partially initialised value.
func (d *Dependencies) Close() {
	var errs []error
	if d.Audit != nil {
		d.Audit.Close()
	} else if d.auditPool != nil {
		d.auditPool.Stop()
	}
	if d.Events != nil {
		errs = append(errs, d.Events.Close())
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	if d.AuditDB != nil {
		errs = append(errs, auditstore.Close(d.AuditDB))
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	if err := errors.Join(errs...); err != nil {
		d.Log.Warn().Err(err).Msg("shutdown: closing dependencies")
	}
}
