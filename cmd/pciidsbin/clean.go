package main

import (
	"fmt"
	"github.com/codegangsta/cli"
	"github.com/jordanwade90/pcidb/pciids"
)

var cleanCommand = cli.Command{
	Name:      "clean",
	Usage:     "Prints the compacted form of device or vendor names.",
	ArgsUsage: "NAME...",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:  "vendor",
			Usage: "arguments are vendor names",
		},
		cli.StringFlag{
			Name:  "vendor-name",
			Usage: "cleaned vendor name to strip from the front of device names",
		},
	},
	Action: cmdClean,
}

// cmdClean implements the "clean" subcommand.
func cmdClean(c *cli.Context) error {
	for _, name := range c.Args() {
		if c.Bool("vendor") {
			fmt.Println(pciids.CleanVendor(name))
		} else {
			fmt.Println(pciids.CleanDevice(name, c.String("vendor-name")))
		}
	}
	return nil
}
