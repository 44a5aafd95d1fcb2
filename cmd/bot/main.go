package main

import (
	"os"

	"github.com/nikitaproks/vpn-bot/cmd/bot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
