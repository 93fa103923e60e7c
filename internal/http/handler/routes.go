package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"docmgmt/internal/http/middleware"
	"docmgmt/internal/service"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Documents service.DocumentService
	Registry  service.RegistryService
	Resolver  service.Resolver
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers only translate between HTTP and the services.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc Services) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/", middleware.Actor())

	api.Get("/departments", ListDepartments(svc.Registry))
	api.Post("/departments", CreateDepartment(svc.Registry))
	api.Get("/departments/:id", GetDepartment(svc.Registry))
	api.Patch("/departments/:id/active", SetDepartmentActive(svc.Registry))

	api.Get("/categories", ListCategories(svc.Registry))
	api.Post("/categories", CreateCategory(svc.Registry))
	api.Post("/categories/resolve", ResolveCategory(svc.Resolver))
	api.Patch("/categories/:id/active", SetCategoryActive(svc.Registry))

	api.Get("/types", ListTypes(svc.Registry))
	api.Post("/types", CreateType(svc.Registry))
	api.Post("/types/resolve", ResolveType(svc.Resolver))
	api.Patch("/types/:id/active", SetTypeActive(svc.Registry))

	api.Get("/documents", ListDocuments(svc.Documents))
	api.Post("/documents", CreateDocument(svc.Documents))
	api.Post("/documents/resolve", ResolveDocument(svc.Resolver))
	api.Post("/documents/upload", UploadDocument(svc.Resolver))
	api.Get("/documents/:id", GetDocument(svc.Documents))
	api.Patch("/documents/:id", UpdateDocument(svc.Documents))
	api.Delete("/documents/:id", DeleteDocument(svc.Documents))
}
