package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-appointment-system/internal/config"
	"github.com/iliyamo/clinic-appointment-system/internal/database"
	"github.com/iliyamo/clinic-appointment-system/internal/handler"
	"github.com/iliyamo/clinic-appointment-system/internal/notify"
	"github.com/iliyamo/clinic-appointment-system/internal/repository"
	"github.com/iliyamo/clinic-appointment-system/internal/router"
	"github.com/iliyamo/clinic-appointment-system/internal/store"
)

func main() {
	_ = godotenv.Load() // optional .env for local development
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	appointments := store.New(cfg.AppointmentFile)
	notifier := notify.QueueNotifier{}

	// Redis is optional; a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	// The consumer delivers queued notification emails in the background
	// and reconnects on broker failure; it never takes the server down.
	go notify.StartConsumer(notify.NewMailerFromEnv())

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAdmin(e, handler.NewAdminHandler(cfg, users, appointments, notifier), users, rdb)
	router.RegisterDoctor(e, handler.NewDoctorHandler(cfg, users, appointments, notifier), users, rdb)
	router.RegisterPatient(e, handler.NewPatientHandler(cfg, users, appointments, notifier), rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
