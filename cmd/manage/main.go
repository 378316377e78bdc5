// Package main is the entry point of the manage command.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/99minutos/platform-skeleton/internal/cli"
)

func main() {
	// A .env file is optional.
	_ = godotenv.Load()
	os.Exit(cli.Execute(context.Background(), cli.Options{}, os.Args[1:]))
}
