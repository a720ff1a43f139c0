package main

import (
	"github.com/sarchlab/memspace/cmd/memspace/cmd"
	"github.com/tebeka/atexit"
)

func main() {
	cmd.Execute()

	// Runs the atexit handlers, which flush any open trace recorder.
	atexit.Exit(0)
}
