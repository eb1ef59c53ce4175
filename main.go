package main

import (
	"log"

	"github.com/repolens/repolens/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("repolens: %v", err)
	}
}
