package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/model"
)

// Options configures handlers that need more than the database.
type Options struct {
	// BackupDir receives the pre-import copy on database import.
	BackupDir string
	// ExportCharset is the default charset of CSV reports.
	ExportCharset string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sqlx.DB, jwtSecret string, opts Options) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	medicinesHandler := &MedicinesHandler{DB: db}
	equipmentHandler := &EquipmentHandler{DB: db}
	medicineImages := &ImagesHandler{DB: db, Kind: model.KindMedicine}
	equipmentImages := &ImagesHandler{DB: db, Kind: model.KindEquipment}
	minimumHandler := &MinimumHandler{DB: db}
	categoriesHandler := &CategoriesHandler{DB: db}
	ordersHandler := &OrdersHandler{DB: db, ExportCharset: opts.ExportCharset}
	utilizationsHandler := &UtilizationsHandler{DB: db, ExportCharset: opts.ExportCharset}
	statusHandler := &StatusHandler{DB: db}
	databaseHandler := &DatabaseHandler{DB: db, BackupDir: opts.BackupDir}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	read := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	write := func(h http.HandlerFunc) http.Handler { return authMW(requireManager(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", read(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", read(authHandler.Logout))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Medicines: read (all roles), write (manager+).
	mux.Handle("GET /api/medicines", read(medicinesHandler.List))
	mux.Handle("POST /api/medicines", write(medicinesHandler.Create))
	mux.Handle("GET /api/medicines/attention", read(medicinesHandler.Attention))
	mux.Handle("GET /api/medicines/{id}", read(medicinesHandler.Get))
	mux.Handle("PUT /api/medicines/{id}", write(medicinesHandler.Update))
	mux.Handle("DELETE /api/medicines/{id}", write(medicinesHandler.Delete))
	mux.Handle("PUT /api/medicines/{id}/image", write(medicineImages.Upload))
	mux.Handle("GET /api/medicines/{id}/image", read(medicineImages.Get))

	// Equipment: read (all roles), write (manager+).
	mux.Handle("GET /api/equipment", read(equipmentHandler.List))
	mux.Handle("POST /api/equipment", write(equipmentHandler.Create))
	mux.Handle("GET /api/equipment/attention", read(equipmentHandler.Attention))
	mux.Handle("GET /api/equipment/{id}", read(equipmentHandler.Get))
	mux.Handle("PUT /api/equipment/{id}", write(equipmentHandler.Update))
	mux.Handle("DELETE /api/equipment/{id}", write(equipmentHandler.Delete))
	mux.Handle("PUT /api/equipment/{id}/image", write(equipmentImages.Upload))
	mux.Handle("GET /api/equipment/{id}/image", read(equipmentImages.Get))

	// Minimum-stock lists.
	mux.Handle("GET /api/minimum/{kind}", read(minimumHandler.List))
	mux.Handle("POST /api/minimum/{kind}", write(minimumHandler.Create))
	mux.Handle("PUT /api/minimum/{kind}/{id}", write(minimumHandler.Update))
	mux.Handle("DELETE /api/minimum/{kind}/{id}", write(minimumHandler.Delete))

	// Category trees.
	mux.Handle("GET /api/categories/{kind}", read(categoriesHandler.List))
	mux.Handle("POST /api/categories/{kind}", write(categoriesHandler.Create))
	mux.Handle("DELETE /api/categories/{kind}/{id}", write(categoriesHandler.Delete))
	mux.Handle("GET /api/categories/{kind}/{id}/subcategories", read(categoriesHandler.ListSubcategories))
	mux.Handle("POST /api/categories/{kind}/{id}/subcategories", write(categoriesHandler.CreateSubcategory))
	mux.Handle("DELETE /api/subcategories/{kind}/{id}", write(categoriesHandler.DeleteSubcategory))
	mux.Handle("GET /api/subcategories/medicine/{id}/subsubcategories", read(categoriesHandler.ListSubSubcategories))
	mux.Handle("POST /api/subcategories/medicine/{id}/subsubcategories", write(categoriesHandler.CreateSubSubcategory))
	mux.Handle("DELETE /api/subsubcategories/{id}", write(categoriesHandler.DeleteSubSubcategory))

	// Orders.
	mux.Handle("GET /api/orders", read(ordersHandler.List))
	mux.Handle("POST /api/orders", write(ordersHandler.Create))
	mux.Handle("GET /api/orders/{id}", read(ordersHandler.Get))
	mux.Handle("DELETE /api/orders/{id}", write(ordersHandler.Delete))
	mux.Handle("PUT /api/orders/{id}/status", write(ordersHandler.SetStatus))
	mux.Handle("POST /api/orders/{id}/lines", write(ordersHandler.AddLine))
	mux.Handle("PUT /api/orders/{id}/lines/{lineID}", write(ordersHandler.UpdateLine))
	mux.Handle("DELETE /api/orders/{id}/lines/{lineID}", write(ordersHandler.DeleteLine))
	mux.Handle("GET /api/orders/{id}/report", read(ordersHandler.Report))

	// Utilizations.
	mux.Handle("GET /api/utilizations", read(utilizationsHandler.List))
	mux.Handle("POST /api/utilizations", write(utilizationsHandler.Create))
	mux.Handle("GET /api/utilizations/{id}", read(utilizationsHandler.Get))
	mux.Handle("DELETE /api/utilizations/{id}", write(utilizationsHandler.Delete))
	mux.Handle("PUT /api/utilizations/{id}/status", write(utilizationsHandler.SetStatus))
	mux.Handle("POST /api/utilizations/{id}/lines", write(utilizationsHandler.AddLine))
	mux.Handle("PUT /api/utilizations/{id}/lines/{lineID}", write(utilizationsHandler.UpdateLine))
	mux.Handle("DELETE /api/utilizations/{id}/lines/{lineID}", write(utilizationsHandler.DeleteLine))
	mux.Handle("GET /api/utilizations/{id}/report", read(utilizationsHandler.Report))

	// Status engine.
	mux.Handle("GET /api/status", read(statusHandler.Get))
	mux.Handle("POST /api/status/recompute", write(statusHandler.Recompute))

	// Database export and import.
	mux.Handle("GET /api/database/export", write(databaseHandler.Export))
	mux.Handle("POST /api/database/import", admin(databaseHandler.Import))

	return mux
}
