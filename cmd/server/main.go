// @title        Reservas API
// @version      1.0
// @description  Event reservation booking backend: accounts, sessions and reservations.
// @host         localhost:3000
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/eventos/reservas-api/pkg/logger"

	_ "github.com/eventos/reservas-api/docs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log := logger.Get()
		log.Error().Err(err).Msg("server exited")
		stop()
		exitFunc(1)
	}
}
