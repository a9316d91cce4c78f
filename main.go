package main

import (
	"os"

	"github.com/ybeven/4D-ARE/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
