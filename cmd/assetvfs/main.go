package main

import (
	"log"

	"tractor.dev/toolkit-go/engine"
	"tractor.dev/toolkit-go/engine/cli"
)

func main() {
	engine.Run(Main{})
}

type Main struct{}

func (m *Main) InitializeCLI(root *cli.Command) {
	root.Usage = "assetvfs"
	root.AddCommand(lsCmd())
	root.AddCommand(catCmd())
	root.AddCommand(statCmd())
	root.AddCommand(globCmd())
	root.AddCommand(mountsCmd())
	root.AddCommand(packCmd())
	root.AddCommand(serveCmd())
}

func fatal(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
