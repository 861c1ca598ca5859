package main

import (
	"os"

	"github.com/wonny/quantafolio/cmd/quanta/commands"
)

// main is the entry point for the quanta CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/quanta [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
