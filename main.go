package main

import (
	"github.com/botmakerspc/Stars-magnat-bota/cmd"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
