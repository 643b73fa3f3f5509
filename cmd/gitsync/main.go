package main

import (
	"os"

	"github.com/Geoion/VibeBase/gitsync/cmd/gitsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
