package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/gophdisk/internal/devserver"
	"github.com/dmitrijs2005/gophdisk/internal/devserver/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := devserver.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
