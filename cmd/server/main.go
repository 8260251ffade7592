package main

import (
	"log"

	"github.com/mkrupkin/pricefinder/app"
	"github.com/mkrupkin/pricefinder/app/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	app.MustInitDB()
	app.InitStripe()
	app.InitCompletionService()

	router, err := app.NewRouter()
	if err != nil {
		log.Fatalf("failed to initialize router: %v", err)
	}
	if err := router.Run("0.0.0.0:" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
