package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Riciboyz/threads-backend/api/auth"
	"github.com/Riciboyz/threads-backend/api/group"
	"github.com/Riciboyz/threads-backend/api/notification"
	"github.com/Riciboyz/threads-backend/api/socket"
	"github.com/Riciboyz/threads-backend/api/thread"
	"github.com/Riciboyz/threads-backend/api/topic"
	"github.com/Riciboyz/threads-backend/api/user"
	authsvc "github.com/Riciboyz/threads-backend/auth"
	"github.com/Riciboyz/threads-backend/db"
	"github.com/Riciboyz/threads-backend/env"
	"github.com/Riciboyz/threads-backend/jobs"
	"github.com/Riciboyz/threads-backend/notify"
	"github.com/Riciboyz/threads-backend/server"
	"github.com/Riciboyz/threads-backend/ws"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(env.LOG_LEVEL); err == nil {
		logger.SetLevel(level)
	}

	gdb, err := db.Open(env.DB_DRIVER, env.DB_DSN)
	if err != nil {
		logger.Fatalln(err)
	}

	svc := authsvc.NewService(gdb, logger)
	hub := ws.NewHub(logger)
	go hub.Run()
	dispatcher := notify.NewDispatcher(gdb, hub, logger)

	runner := jobs.NewRunner(gdb, svc, logger)
	runner.Start()

	r := chi.NewRouter()
	server.SetupMiddlewares(r)

	auth.NewHandlers(logger, svc).SetupRoutes(r)
	user.NewHandlers(logger, gdb, dispatcher, svc).SetupRoutes(r)
	thread.NewHandlers(logger, gdb, hub, dispatcher, svc).SetupRoutes(r)
	group.NewHandlers(logger, gdb, dispatcher, svc).SetupRoutes(r)
	topic.NewHandlers(logger, gdb, svc).SetupRoutes(r)
	notification.NewHandlers(logger, gdb, svc).SetupRoutes(r)
	socket.NewHandlers(logger, hub, svc).SetupRoutes(r)

	srv := server.New(r)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("shutting down")
		runner.Stop()
		hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	logger.WithField("port", env.APP_PORT).Info("server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalln(err)
	}
}
