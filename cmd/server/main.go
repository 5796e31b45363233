package main // Entry point package

import (
	"log"  // Logging library
	"time" // TTL arithmetic for the QR token store

	"github.com/joho/godotenv" // Load .env files in local development
	"github.com/labstack/echo/v4"

	"github.com/saveplate/marketplace/internal/config"
	"github.com/saveplate/marketplace/internal/database"
	"github.com/saveplate/marketplace/internal/handler"
	"github.com/saveplate/marketplace/internal/middleware"
	"github.com/saveplate/marketplace/internal/queue"
	"github.com/saveplate/marketplace/internal/repository"
	"github.com/saveplate/marketplace/internal/router"
)

func main() {
	// A missing .env is fine; in deployed environments the variables come
	// from the process environment.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()

	// Repositories over the shared *sql.DB.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	products := repository.NewProductRepo(db)
	txs := repository.NewTransactionRepo(db)
	reviews := repository.NewReviewRepo(db)
	convs := repository.NewConversationRepo(db)
	messages := repository.NewMessageRepo(db)
	notifs := repository.NewNotificationRepo(db)
	gamif := repository.NewGamificationRepo(db)
	qrStore := repository.NewQRStore(rdb, time.Duration(cfg.QRTokenTTLMin)*time.Minute)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	productH := handler.NewProductHandler(products, txs, reviews)
	paymentH := handler.NewPaymentHandler(cfg, products, txs, users, qrStore)
	convH := handler.NewConversationHandler(convs, messages, products)
	notifH := handler.NewNotificationHandler(notifs)
	reviewH := handler.NewReviewHandler(reviews, txs)
	gamifH := handler.NewGamificationHandler(gamif, txs, reviews)

	// The lifecycle consumer turns reserve/confirm/cancel/complete events
	// into notifications, credits and badges.  It reconnects on its own,
	// so a broker outage never takes the API down with it.
	consumer := queue.NewConsumer(notifs, gamif, txs)
	go func() {
		if err := consumer.Start(); err != nil {
			log.Printf("lifecycle consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	if rl := config.LoadRateLimitConfig(); rl.Enabled && rdb != nil {
		e.Use(middleware.NewTokenBucket(rl, rdb))
	}
	var browseCache []echo.MiddlewareFunc
	if cc := config.LoadCacheConfig(); cc.Enabled && rdb != nil {
		browseCache = append(browseCache, middleware.NewRedisCache(cc, rdb))
	}

	router.RegisterRoutes(e)
	auth := router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterMarketplace(e, auth, productH, paymentH, browseCache...)
	router.RegisterSocial(auth, convH, notifH, reviewH, gamifH)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
