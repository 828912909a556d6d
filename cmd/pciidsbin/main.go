package main

import (
	"flag"
	"github.com/codegangsta/cli"
	log "github.com/golang/glog"
	"os"
)

var usage = `
	pciidsbin converts the PCI ID registry (pci.ids) into the compact binary
	database read by the pcireg firmware tool, and inspects the result.

	Logging flags (-v, -log_dir, ...) go before the subcommand:

		pciidsbin -v=1 build --layout combined --out PCIIDS.BIN
	`

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "pciidsbin"
	app.Usage = usage

	app.Commands = []cli.Command{
		buildCommand,
		lookupCommand,
		cleanCommand,
	}
	return app
}

func main() {
	// We should send our own log output to stderr.
	flag.Set("logtostderr", "true")
	flag.Parse()

	if err := newApp().Run(append(os.Args[:1], flag.Args()...)); err != nil {
		log.Exitf("%v", err)
	}
}
