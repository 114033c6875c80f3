package main

import (
	"context"
	"fmt"
	"log"

	"github.com/common-nighthawk/go-figure"
	"github.com/dmitrijs2005/teamboard/internal/server"
	"github.com/dmitrijs2005/teamboard/internal/server/config"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
)

func main() {

	displayAppname("teamboard")
	fmt.Printf("Build version: %s\nBuild date: %s\n", buildVersion, buildDate)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
