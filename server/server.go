package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/Riciboyz/threads-backend/env"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupMiddlewares(r *chi.Mux) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(env.CORS_ORIGINS, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Expo-Push-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func New(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + env.APP_PORT,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
