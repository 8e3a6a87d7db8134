package main

import (
	"context"
	"log"

	api "github.com/hamrobooks/bookstore-api/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("bookstore API failed: %v", err)
	}
}
