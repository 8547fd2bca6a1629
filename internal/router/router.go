// Package router wires URL paths to handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/library-lending/internal/config"
	"github.com/iliyamo/library-lending/internal/handler"
	"github.com/iliyamo/library-lending/internal/middleware"
)

// Deps carries everything route registration needs.
type Deps struct {
	Auth      *handler.AuthHandler
	Books     *handler.BookHandler
	Borrows   *handler.BorrowHandler
	JWTSecret string
	Blacklist middleware.RevocationChecker
	Redis     *redis.Client
	RateCfg   config.RateLimitConfig
	CacheCfg  config.CacheConfig
}

// Register sets up the full route table.
//
// Layout:
//
//	GET  /healthz                    liveness, unauthenticated
//	POST /v1/auth/register           create account, token in response
//	POST /v1/auth/login              exchange credentials for a token
//	POST /v1/auth/logout             revoke the presented token (JWT required)
//	GET  /v1/me                      caller identity
//	GET  /v1/books[?limit=&page=]    catalog list, optionally paginated
//	GET  /v1/books/:id               catalog entry
//	POST /v1/books                   add title / add copy         (admin)
//	PUT  /v1/books/:id               edit descriptive fields      (admin)
//	DELETE /v1/books/:id             remove title                 (admin)
//	POST /v1/users/books/:id         borrow a copy
//	PUT  /v1/users/books/:id         return a copy (optional borrow_id body)
//	GET  /v1/users/books             own history; ?returned=false for held books
//	GET  /v1/admin/borrows           all open borrows             (admin)
//	PUT  /v1/admin/users/:id/admin   grant librarian role         (admin)
//	DELETE /v1/admin/users/:id/admin revoke librarian role        (admin)
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	rate := middleware.RateLimit(d.RateCfg, d.Redis)
	cache := middleware.ResponseCache(d.CacheCfg, d.Redis)

	pub := e.Group("/v1/auth", rate)
	pub.POST("/register", d.Auth.Register)
	pub.POST("/login", d.Auth.Login)

	auth := e.Group("/v1", rate, middleware.JWTAuth(d.JWTSecret, d.Blacklist))
	auth.POST("/auth/logout", d.Auth.Logout)
	auth.GET("/me", d.Auth.Me)

	// Catalog reads go through the response cache; staleness is
	// bounded by the cache TTL.
	auth.GET("/books", d.Books.List, cache)
	auth.GET("/books/:id", d.Books.Get, cache)

	auth.POST("/users/books/:id", d.Borrows.Borrow)
	auth.PUT("/users/books/:id", d.Borrows.Return)
	auth.GET("/users/books", d.Borrows.ListMine)

	admin := auth.Group("", middleware.RequireAdmin())
	admin.POST("/books", d.Books.Create)
	admin.PUT("/books/:id", d.Books.Update)
	admin.DELETE("/books/:id", d.Books.Delete)
	admin.GET("/admin/borrows", d.Borrows.AdminOpen)
	admin.PUT("/admin/users/:id/admin", d.Auth.SetAdmin(true))
	admin.DELETE("/admin/users/:id/admin", d.Auth.SetAdmin(false))
}
