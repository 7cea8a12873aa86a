package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-api/internal/application/auth"
	"github.com/jhoicas/Facturacion-api/internal/application/authz"
	"github.com/jhoicas/Facturacion-api/internal/application/subscription"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Gate          *authz.Gate
	AuthUC        *auth.AuthUseCase
	Subscriptions *subscription.Service
	Audit         repository.AuditRepository
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	gate := deps.Gate

	admin := []entity.Role{entity.RoleAdministrador}
	administrative := []entity.Role{entity.RoleAdministrador, entity.RoleDistribuidor}
	creators := []entity.Role{entity.RoleAdministrador, entity.RoleDistribuidor, entity.RoleEmisor, entity.RoleGerente}
	subscriptionReaders := []entity.Role{entity.RoleAdministrador, entity.RoleDistribuidor, entity.RoleEmisor, entity.RoleGerente}

	// Auth
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/logout", AuthMiddleware(gate), authHandler.Logout)
	authGroup.Post("/logout-all", AuthMiddleware(gate), authHandler.LogoutAll)
	authGroup.Put("/password", AuthMiddleware(gate), authHandler.ChangePassword)
	authGroup.Get("/me", AuthMiddleware(gate), authHandler.Me)
	authGroup.Get("/sessions", AuthMiddleware(gate), authHandler.Sessions)
	authGroup.Delete("/sessions/:id", AuthMiddleware(gate), authHandler.RevokeSession)

	// Users (cajero no puede crear a nadie)
	userHandler := NewUserHandler(deps.AuthUC)
	api.Get("/roles", AuthMiddleware(gate), userHandler.Roles)
	users := api.Group("/users", Authorize(gate, creators...))
	users.Post("/", userHandler.Create)
	users.Get("/", userHandler.List)

	// Plans y suscripciones
	subHandler := NewSubscriptionHandler(deps.Subscriptions, gate)
	api.Get("/plans", AuthMiddleware(gate), subHandler.Plans)
	subs := api.Group("/subscriptions")
	subs.Post("/", Authorize(gate, administrative...), subHandler.Create)
	subs.Get("/", Authorize(gate, subscriptionReaders...), subHandler.List)
	subs.Get("/:id", Authorize(gate, subscriptionReaders...), subHandler.GetByID)
	subs.Get("/:id/transitions", Authorize(gate, subscriptionReaders...), subHandler.Transitions)
	subs.Get("/:id/historial", Authorize(gate, subscriptionReaders...), subHandler.History)
	subs.Post("/:id/state", Authorize(gate, administrative...), subHandler.ChangeState)
	subs.Patch("/:id", Authorize(gate, administrative...), subHandler.Update)

	// Auditoría
	auditHandler := NewAuditHandler(deps.Audit)
	api.Get("/audit", Authorize(gate, admin...), auditHandler.List)
}
