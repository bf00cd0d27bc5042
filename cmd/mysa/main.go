package main

import (
	"fmt"
	"os"

	"github.com/MrSnakeDoc/mysa/cmd/mysa/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ mysa: %v\n", err)
		os.Exit(1)
	}
}
