package main

import (
	"log"

	"github.com/MrSnakeDoc/rollcall/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ rollcall failed to start: %v", err)
	}
}
