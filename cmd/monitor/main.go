package main

import (
	"os"

	"github.com/visionguard/visionguard-monitor/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
