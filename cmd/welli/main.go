package main

import (
	"os"

	"github.com/welli-app/retention-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
