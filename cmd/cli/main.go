package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/veltra/genflow/cmd/cli/commands"
)

func main() {
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
