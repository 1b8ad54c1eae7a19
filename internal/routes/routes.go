package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/config"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/handlers"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/middleware"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/repository"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/services"
	schedws "github.com/phandinhthai012/stagpower-gym-client-sub001/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	trainerRepo := repository.NewTrainerRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	hub := schedws.NewHub()
	go hub.Run()

	scheduleService := services.NewScheduleService(db, sessionRepo, memberRepo, trainerRepo, hub)

	authHandler := handlers.NewAuthHandler(db, userRepo, memberRepo, trainerRepo, cfg.JWTSecret)
	sessionHandler := handlers.NewSessionHandler(scheduleService)
	memberHandler := handlers.NewMemberHandler(scheduleService)
	wsHandler := handlers.NewWSHandler(hub, memberRepo, trainerRepo, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	sessions := authProtected.Group("/sessions")
	sessions.Post("/book", sessionHandler.BookSession)
	sessions.Get("/availability", sessionHandler.CheckAvailability)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Put("/:id/status", sessionHandler.UpdateStatus)
	sessions.Delete("/:id", sessionHandler.DeleteSession)

	members := authProtected.Group("/members")
	members.Get("/eligible", memberHandler.ListEligibleMembers)

	api.Use("/v1/ws", wsHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(wsHandler.HandleWebSocket))
}
