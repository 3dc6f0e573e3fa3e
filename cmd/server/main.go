// cmd/server/main.go
package main

import (
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/heavegame/heave/internal/auth"
	"github.com/heavegame/heave/internal/handlers"
	"github.com/heavegame/heave/internal/middleware"
	"github.com/heavegame/heave/internal/stats"
)

func main() {
	auth.Init()

	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Stats are best-effort telemetry; the game runs fine without Redis.
	var rec *stats.Recorder
	if client, err := stats.Connect(); err != nil {
		logger.Warnf("stats disabled: %v", err)
		rec = stats.NewRecorder(nil)
	} else {
		rec = stats.NewRecorder(client)
	}

	srv := handlers.NewGameServer(logger, rec)

	mux := http.NewServeMux()
	mux.Handle("/login", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.LoginHandler,
	)))
	mux.Handle("/stats", middleware.LogMiddleware(logger)(
		handlers.StatsHandler(srv),
	))
	mux.Handle("/ws", handlers.GameWSHandler(logger, srv))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	server := &http.Server{
		Handler:     mux,
		ReadTimeout: time.Second * 10,
		// No WriteTimeout: WebSocket connections are long-lived.
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}
}
