package main

import (
	_ "embed"
	"os"

	"github.com/klabast/wb-services/garden-planner/internal/commands"
)

//go:embed static/index.html
var indexHTML []byte

func main() {
	if err := commands.NewRootCommand(indexHTML).Execute(); err != nil {
		os.Exit(1)
	}
}
