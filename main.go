package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"ramp-watch/cmd"
)

func main() {
	// .env is optional; viper still reads the real environment.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
