package main

import (
	"context"
	"fmt"
	"github.com/codegangsta/cli"
	log "github.com/golang/glog"
	"github.com/jordanwade90/pcidb"
	"github.com/jordanwade90/pcidb/pciids"
)

var buildCommand = cli.Command{
	Name:    "build",
	Aliases: []string{"b"},
	Usage:   "Converts pci.ids into a binary database.",
	Flags: []cli.Flag{
		cli.StringSliceFlag{
			Name:  "source, s",
			Usage: "pci.ids path or URL, tried in order (default: system copies, then pci-ids.ucw.cz)",
		},
		cli.StringFlag{
			Name:  "layout, l",
			Usage: "combined (one file with a header) or split (one file per table)",
			Value: "split",
		},
		cli.StringFlag{
			Name:  "out, o",
			Usage: "output file for combined, directory for split (default: PCIIDS.BIN or .)",
		},
		stringsFlag,
		offsetsFlag,
		templateFlag,
		cli.IntFlag{
			Name:  "max-name",
			Usage: "cap every name at this many bytes (default: the string format's limit)",
		},
		cli.StringFlag{
			Name:  "manifest",
			Usage: "also write a JSON summary of the database to this file",
		},
		cli.BoolFlag{
			Name:  "raw",
			Usage: "keep vendor and device names as written in pci.ids",
		},
	},
	Action: cmdBuild,
}

// cmdBuild implements the "build" subcommand.
func cmdBuild(c *cli.Context) error {
	layout, err := parseLayout(c.String("layout"))
	if err != nil {
		return err
	}
	opts, err := encodingOptions(c, layout)
	if err != nil {
		return err
	}

	comp := pciids.DefaultCompaction
	comp.Raw = c.Bool("raw")
	comp.MaxNameLen = opts.Strings.MaxLen()
	if c.IsSet("max-name") {
		n := c.Int("max-name")
		if n <= 0 || n > opts.Strings.MaxLen() {
			return fmt.Errorf("--max-name %d out of range [1, %d] for %v strings", n, opts.Strings.MaxLen(), opts.Strings)
		}
		comp.MaxNameLen = n
	}

	ids, src, err := pciids.Load(context.Background(), c.StringSlice("source")...)
	if err != nil {
		return err
	}
	log.Infof("Loaded %s: %d vendors, %d devices, %d classes", src, len(ids.Vendors), len(ids.Devices), len(ids.Classes))

	db, err := pcidb.Build(ids.Registry(comp), opts)
	if err != nil {
		return fmt.Errorf("building database: %w", err)
	}
	for _, seg := range pcidb.Segments {
		if seg.IsTable() {
			log.V(1).Infof("%-9v %6d records %8d bytes", seg, db.Table(seg).Records(), len(db.Segment(seg)))
		} else {
			log.V(1).Infof("%-9v %6d names   %8d bytes", seg, db.Names(), len(db.Segment(seg)))
		}
	}

	out := c.String("out")
	if out == "" {
		out = "PCIIDS.BIN"
		if layout == pcidb.Split {
			out = "."
		}
	}
	template := c.String("template")
	if err := db.Create(layout, out, template); err != nil {
		return err
	}
	m := db.Manifest(layout, template)
	log.Infof("Wrote %v database to %s: %d bytes, %d names (%v strings, %v offsets)",
		layout, out, m.Size, m.Names, opts.Strings, opts.Offsets)

	if path := c.String("manifest"); path != "" {
		if err := m.WriteFile(path); err != nil {
			return err
		}
		log.V(1).Infof("Wrote manifest to %s", path)
	}
	return nil
}
