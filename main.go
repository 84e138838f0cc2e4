package main

import (
	"github.com/storeforge/storeforge/cmd"
)

// main is the entry point for the storeforge CLI.
func main() {
	cmd.Execute()
}
