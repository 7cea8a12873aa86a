package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Facturacion-api/internal/application/auth"
	"github.com/jhoicas/Facturacion-api/internal/application/authz"
	"github.com/jhoicas/Facturacion-api/internal/application/ports"
	"github.com/jhoicas/Facturacion-api/internal/application/session"
	"github.com/jhoicas/Facturacion-api/internal/application/subscription"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/catalog"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/memory"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/notify"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/seed"
	httpRouter "github.com/jhoicas/Facturacion-api/internal/interfaces/http"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

// storage agrupa los adaptadores de persistencia elegidos por STORAGE_DRIVER.
type storage struct {
	users       repository.UserRepository
	tokens      repository.AccessTokenRepository
	subs        repository.SubscriptionRepository
	history     repository.TransitionRepository
	plans       repository.PlanRepository
	emisores    repository.EmisorRepository
	audit       repository.AuditRepository
	actorRunner session.ActorTxRunner
	subRunner   subscription.SubscriptionTxRunner
	close       func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	if cfg.JWT.Secret == "" {
		panic("JWT_SECRET es obligatorio")
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var store *storage
	switch cfg.Storage.Driver {
	case "memory":
		store, err = memoryStorage(ctx, cfg.Bootstrap)
	default:
		store, err = postgresStorage(ctx, cfg.DB)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	cat, err := catalog.Load(cfg.Subscription.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Subscription.CatalogPath).Msg("catálogo de suscripciones")
	}

	var (
		notifier    ports.LoginNotifier
		redisClient *redis.Client
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = notify.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		notifier = notify.NewRedisPublisher(redisClient, cfg.Redis.Channel)
	} else {
		notifier = notify.NewLogNotifier(log.Component("notify"))
	}

	engine := session.NewEngine(
		session.PolicyFromConfig(cfg.Session),
		session.SigningConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer},
		store.actorRunner, store.tokens, store.users,
		session.WithNotifier(notifier),
		session.WithLogger(log.Component("session")),
	)
	gate := authz.NewGate(engine, store.audit, log.Component("authz"))
	authUC := auth.NewAuthUseCase(store.users, store.emisores, store.audit, engine, log.Component("auth"))
	subscriptionSvc := subscription.NewService(subscription.Deps{
		Catalog:  cat,
		Runner:   store.subRunner,
		Subs:     store.subs,
		History:  store.history,
		Plans:    store.plans,
		Emisores: store.emisores,
		Audit:    store.audit,
		Log:      log.Component("subscription"),
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		subscription.NewSweeper(subscriptionSvc, cfg.Subscription.SweepInterval, log.Component("sweeper")).Run(sweepCtx)
	}()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		Immutable:    true,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (requiere swag init)
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Facturación API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Gate:          gate,
		AuthUC:        authUC,
		Subscriptions: subscriptionSvc,
		Audit:         store.audit,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	stopSweep()
	<-sweepDone
	engine.WaitNotifications()
	if redisClient != nil {
		_ = redisClient.Close()
	}

	log.Info().Msg("aplicación detenida")
}

func postgresStorage(ctx context.Context, cfg config.DBConfig) (*storage, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &storage{
		users:       postgres.NewUserRepository(pool),
		tokens:      postgres.NewTokenRepository(pool),
		subs:        postgres.NewSubscriptionRepository(pool),
		history:     postgres.NewTransitionRepository(pool),
		plans:       postgres.NewPlanRepository(pool),
		emisores:    postgres.NewEmisorRepository(pool),
		audit:       postgres.NewAuditRepository(pool),
		actorRunner: postgres.NewTxRunner(pool),
		subRunner:   postgres.NewTxRunner(pool),
		close:       pool.Close,
	}, nil
}

// memoryStorage arranca con los planes base, el emisor de pruebas y el administrador de BOOTSTRAP_*.
func memoryStorage(ctx context.Context, boot config.BootstrapConfig) (*storage, error) {
	users := memory.NewUserRepo()
	tokens := memory.NewTokenRepo()
	subs := memory.NewSubscriptionRepo()
	history := memory.NewTransitionRepo()

	if boot.AdminPassword != "" {
		admin, err := seed.Admin(boot.AdminUsername, boot.AdminEmail, boot.AdminPassword, bcrypt.DefaultCost, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		if err := users.Create(ctx, admin); err != nil {
			return nil, err
		}
	}
	return &storage{
		users:       users,
		tokens:      tokens,
		subs:        subs,
		history:     history,
		plans:       memory.NewPlanRepo(seed.Plans()...),
		emisores:    memory.NewEmisorRepo(seed.DemoEmisor()),
		audit:       memory.NewAuditRepo(),
		actorRunner: memory.NewActorRunner(tokens),
		subRunner:   memory.NewSubscriptionRunner(subs, history),
		close:       func() {},
	}, nil
}
