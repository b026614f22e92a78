package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"tavolo/config"
	"tavolo/di"
	"tavolo/shared/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		log.Info().Msg("Received shutdown signal, stopping sweeper.")

		cancel()
	}()

	sweeper := di.InitializeSweeper()
	sweeper.Run(ctx)
}
