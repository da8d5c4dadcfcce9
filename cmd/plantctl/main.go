package main

import (
	"os"

	"plant-backend/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
