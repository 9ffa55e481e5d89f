package main

import (
	"context"
	"log"

	"github.com/nsqlite/sqlitetest/internal/sqlitetest"
)

func main() {
	if err := sqlitetest.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
