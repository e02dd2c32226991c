// @title        ledger-api
// @version      1.0
// @description  Inventario y ventas con agregados mantenidos (stock por producto, total por venta).
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/application/auth"
	"github.com/jhoicas/ledger-api/internal/application/usecase"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/internal/infrastructure/eventbus"
	"github.com/jhoicas/ledger-api/internal/infrastructure/memstore"
	infrapdf "github.com/jhoicas/ledger-api/internal/infrastructure/pdf"
	"github.com/jhoicas/ledger-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/ledger-api/internal/interfaces/http"
	"github.com/jhoicas/ledger-api/pkg/config"
	"github.com/jhoicas/ledger-api/pkg/logger"

	_ "github.com/jhoicas/ledger-api/docs"
)

// publisher lo que main necesita del bus de eventos.
type publisher interface {
	usecase.ChangePublisher
	io.Closer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()

	var (
		tx      aggregate.TxRunner
		users   repository.UserRepository
		reports repository.ReportRepository
	)
	switch cfg.DB.Driver {
	case "memory":
		db := memstore.New()
		tx, users, reports = db, db.Store().Users, db.Reports()
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.Migrate {
			applied, err := postgres.Migrate(ctx, pool)
			if err != nil {
				log.Fatal().Err(err).Msg("migración del esquema")
			}
			log.Info().Strs("applied", applied).Msg("esquema al día")
		}
		tx = postgres.NewTxRunner(pool)
		users = postgres.NewUserRepository(pool)
		reports = postgres.NewReportRepository(pool)
	}

	authUC := auth.NewAuthUseCase(users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log.Named("auth"))
	created, err := authUC.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password)
	if err != nil {
		log.Fatal().Err(err).Msg("crear administrador inicial")
	}
	if created {
		log.Info().Str("username", cfg.Admin.Username).Msg("administrador inicial creado")
	}

	// Sin RABBITMQ_URL los cambios de agregados no se publican.
	var events publisher = eventbus.Noop{}
	if cfg.Events.RabbitMQURL != "" {
		p, err := eventbus.NewRabbitMQPublisher(cfg.Events.RabbitMQURL, cfg.Events.Exchange, log.Named("eventbus"))
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		events = p
	}
	defer events.Close()

	ucLog := log.Named("usecase")
	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:        cfg.App.Name,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Log:         log,
	}, httpRouter.RouterDeps{
		AuthUC:       authUC,
		UserUC:       usecase.NewUserUseCase(tx, ucLog),
		CustomerUC:   usecase.NewCustomerUseCase(tx, ucLog),
		CategoryUC:   usecase.NewCategoryUseCase(tx, ucLog),
		ProductUC:    usecase.NewProductUseCase(tx, events, ucLog),
		InventoryUC:  usecase.NewInventoryUseCase(tx, events, ucLog),
		SaleUC:       usecase.NewSaleUseCase(tx, events, ucLog),
		ReceiptUC:    usecase.NewReceiptUseCase(tx, infrapdf.NewReceiptGenerator(), cfg.App.StoreName),
		ReportUC:     usecase.NewReportUseCase(reports),
		AdminUC:      usecase.NewAdminUseCase(tx, ucLog),
		JWTSecret:    cfg.JWT.Secret,
		RefreshRoles: cfg.JWT.RefreshRoles,
	})

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ledger-api",
	}))

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

	log.Info().Msg("aplicación detenida")
}
