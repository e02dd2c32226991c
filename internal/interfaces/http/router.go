package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/ledger-api/internal/application/auth"
	"github.com/jhoicas/ledger-api/internal/application/usecase"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	UserUC      *usecase.UserUseCase
	CustomerUC  *usecase.CustomerUseCase
	CategoryUC  *usecase.CategoryUseCase
	ProductUC   *usecase.ProductUseCase
	InventoryUC *usecase.InventoryUseCase
	SaleUC      *usecase.SaleUseCase
	ReceiptUC   *usecase.ReceiptUseCase
	ReportUC    *usecase.ReportUseCase
	AdminUC     *usecase.AdminUseCase
	JWTSecret   string
	// RefreshRoles consulta el rol vigente en cada petición en vez de confiar en el del token.
	RefreshRoles bool
}

// AppConfig opciones del servidor Fiber.
type AppConfig struct {
	Name        string
	CORSOrigins string
	Log         *logger.Logger
}

// NewApp construye la aplicación Fiber con el middleware común, /health y las rutas de la API.
func NewApp(cfg AppConfig, deps RouterDeps) *fiber.App {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	origins := cfg.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ErrorHandler: ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))
	app.Use(RequestLogger(log.Named("http")))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.Name})
	})

	Router(app, deps)
	return app
}

// Router registra las rutas de la API. Lectura exige read, mutaciones write;
// borrar ventas o usuarios y las rutas de administración exigen admin.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	chain := []fiber.Handler{AuthMiddleware(deps.JWTSecret)}
	if deps.RefreshRoles {
		chain = append(chain, RefreshRole(deps.AuthUC))
	}
	protected := api.Group("", chain...)

	read := RequireRole(entity.RoleRead)
	write := RequireRole(entity.RoleWrite)
	admin := RequireRole(entity.RoleAdmin)

	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/me", read, authHandler.Me)

	users := protected.Group("/users", admin)
	userHandler := NewUserHandler(deps.UserUC)
	users.Post("/", userHandler.Create)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Patch("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", write, customerHandler.Create)
	customers.Get("/", read, customerHandler.List)
	customers.Get("/:id", read, customerHandler.GetByID)
	customers.Patch("/:id", write, customerHandler.Update)
	customers.Delete("/:id", write, customerHandler.Delete)

	categories := protected.Group("/categories")
	categoryHandler := NewCategoryHandler(deps.CategoryUC)
	categories.Post("/", write, categoryHandler.Create)
	categories.Get("/", read, categoryHandler.List)
	categories.Get("/:id", read, categoryHandler.GetByID)
	categories.Patch("/:id", write, categoryHandler.Update)
	categories.Delete("/:id", write, categoryHandler.Delete)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", write, productHandler.Create)
	products.Get("/", read, productHandler.List)
	products.Get("/:id", read, productHandler.GetByID)
	products.Patch("/:id", write, productHandler.Update)
	products.Delete("/:id", write, productHandler.Delete)

	logs := protected.Group("/logs")
	inventoryHandler := NewInventoryHandler(deps.InventoryUC)
	logs.Post("/", write, inventoryHandler.Record)
	logs.Get("/", read, inventoryHandler.List)
	logs.Get("/:id", read, inventoryHandler.GetByID)
	logs.Patch("/:id", write, inventoryHandler.Update)
	logs.Delete("/:id", write, inventoryHandler.Delete)

	sales := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.SaleUC, deps.ReceiptUC)
	sales.Post("/", write, saleHandler.Create)
	sales.Get("/", read, saleHandler.List)
	sales.Patch("/details/:detailId", write, saleHandler.UpdateDetail)
	sales.Delete("/details/:detailId", write, saleHandler.DeleteDetail)
	sales.Get("/:id", read, saleHandler.GetByID)
	sales.Patch("/:id", write, saleHandler.Update)
	sales.Delete("/:id", admin, saleHandler.Delete)
	sales.Post("/:id/details", write, saleHandler.AddDetail)
	sales.Get("/:id/receipt", read, saleHandler.Receipt)

	reports := protected.Group("/reports", read)
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/stock", reportHandler.Stock)
	reports.Get("/sales", reportHandler.Sales)

	adminGroup := protected.Group("/admin", admin)
	adminHandler := NewAdminHandler(deps.AdminUC)
	adminGroup.Post("/rekey", adminHandler.Rekey)
	adminGroup.Post("/reconcile", adminHandler.Reconcile)
}
