package main

import "github.com/meltforce/liftlog/internal/cli"

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	cli.Version = Version
	cli.Execute()
}
