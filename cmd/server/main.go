// cmd/server/main.go
package main

import (
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/brawlroom/server/internal/config"
	"github.com/brawlroom/server/internal/handlers"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	cfg := config.FromEnv()
	srv := handlers.NewServer(cfg, logger)

	logger.WithFields(logrus.Fields{
		"addr": cfg.Addr,
		"mode": cfg.Mode,
	}).Info("starting")
	if err := http.ListenAndServe(cfg.Addr, srv.Routes()); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
