package main

import (
	"os"

	"github.com/Malumbo21/askdb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
