package web

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"dwitter/internal/config"
	"dwitter/internal/database"

	"github.com/labstack/echo/v4"
)

type app struct {
	infoLog           *log.Logger
	errorLog          *log.Logger
	Database          *database.Database
	UserService       *database.UserService
	SessionService    *database.SessionService
	ProfileService    *database.ProfileService
	DweetService      *database.DweetService
	EngagementService *database.EngagementService
	FeedService       *database.FeedService
}

func RunApp() {
	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP network address")
	dsn := flag.String("dsn", "", "Path to SQLite3 database file")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		errorLog.Fatal(err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dsn != "" {
		cfg.DSN = *dsn
	}

	db, err := database.NewDatabase(cfg.DSN)
	if err != nil {
		errorLog.Fatal("Failed to open SQLite DB: ", err)
	}
	defer db.Close()

	infoLog.Println("SQLite DB connected:", cfg.DSN)

	app := &app{
		infoLog:           infoLog,
		errorLog:          errorLog,
		Database:          db,
		UserService:       database.NewUserService(db),
		SessionService:    database.NewSessionService(db),
		ProfileService:    database.NewProfileService(db),
		DweetService:      database.NewDweetService(db),
		EngagementService: database.NewEngagementService(db),
		FeedService:       database.NewFeedService(db),
	}

	if err := app.SessionService.CleanupExpiredSessions(); err != nil {
		app.infoLog.Printf("Warning: failed to cleanup expired sessions: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	app.routes(e)

	srv := &http.Server{
		Addr:     cfg.Addr,
		ErrorLog: app.errorLog,
		Handler:  e,

		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	infoLog.Printf("Starting server on http://localhost%s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil {
		errorLog.Fatal(err)
	}
}
