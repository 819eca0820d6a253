package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-ticket-reservation/internal/config"
	"github.com/iliyamo/train-ticket-reservation/internal/database"
	"github.com/iliyamo/train-ticket-reservation/internal/handler"
	"github.com/iliyamo/train-ticket-reservation/internal/middleware"
	"github.com/iliyamo/train-ticket-reservation/internal/queue"
	"github.com/iliyamo/train-ticket-reservation/internal/repository"
	"github.com/iliyamo/train-ticket-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	stations := repository.NewStationRepo(db)
	trains := repository.NewTrainRepo(db)
	carriages := repository.NewCarriageRepo(db)
	seats := repository.NewSeatRepo(db)
	routes := repository.NewRouteRepo(db)
	runs := repository.NewRunRepo(db)
	slots := repository.NewSlotRepo(db)
	orders := repository.NewOrderRepo(db)
	stats := repository.NewStatsRepo(db)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	stationH := handler.NewStationHandler(stations)
	trainH := handler.NewTrainHandler(trains, carriages, seats)
	carriageH := handler.NewCarriageHandler(carriages, seats, trains)
	routeH := handler.NewRouteHandler(routes, stations)
	runH := handler.NewRunHandler(runs, trains, routes, seats, slots)
	orderH := handler.NewOrderHandler(orders, slots, runs, routes, seats)
	adminH := handler.NewAdminHandler(stats, users)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterBrowse(e, stationH, trainH, carriageH, routeH, runH, cfg.JWTSecret, cache)
	router.RegisterOrders(e, orderH, cfg.JWTSecret)
	router.RegisterAdmin(e, stationH, trainH, carriageH, routeH, runH, orderH, adminH, cfg.JWTSecret)

	// Completed-order events are consumed in the background and written
	// to logs/orders.log for auditing.
	go queue.StartOrderConsumer()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
