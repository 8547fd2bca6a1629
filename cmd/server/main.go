package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-lending/internal/config"
	"github.com/iliyamo/library-lending/internal/database"
	"github.com/iliyamo/library-lending/internal/handler"
	"github.com/iliyamo/library-lending/internal/lending"
	"github.com/iliyamo/library-lending/internal/queue"
	"github.com/iliyamo/library-lending/internal/repository"
	"github.com/iliyamo/library-lending/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it token revocation, rate limiting
	// and the catalog cache are disabled and the API still works.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; revocation, rate limiting and caching disabled")
	}

	users := repository.NewUserRepo(db)
	books := repository.NewBookRepo(db)
	ledger := repository.NewLedgerRepo(db)
	store := repository.NewLendingStore(db, books, ledger)
	engine := lending.New(store, cfg.ReturnPeriod)
	blacklist := repository.NewTokenBlacklist(rdb)

	// Background consumer mirrors lending activity into logs/lending.log.
	go func() {
		if err := queue.StartLoanConsumer(); err != nil {
			log.Printf("loan consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		Auth:      handler.NewAuthHandler(cfg, users, blacklist),
		Books:     handler.NewBookHandler(books),
		Borrows:   handler.NewBorrowHandler(engine, books),
		JWTSecret: cfg.JWTSecret,
		Blacklist: blacklist,
		Redis:     rdb,
		RateCfg:   config.LoadRateLimitConfig(),
		CacheCfg:  config.LoadCacheConfig(),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
