package main

import (
	"errors"
	"fmt"
	"github.com/codegangsta/cli"
	log "github.com/golang/glog"
	"github.com/jordanwade90/pcidb"
	"golang.org/x/text/encoding/charmap"
	"os"
	"strconv"
	"strings"
)

var lookupCommand = cli.Command{
	Name:      "lookup",
	Aliases:   []string{"l"},
	Usage:     "Resolves ids against a binary database.",
	ArgsUsage: "vvvv[:dddd[:ssss:tttt]]... or, with --class, cc[:ss[:pp]]...",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "db",
			Usage: "combined database file",
		},
		cli.StringFlag{
			Name:  "dir",
			Usage: "directory holding a split database",
		},
		stringsFlag,
		offsetsFlag,
		templateFlag,
		cli.BoolFlag{
			Name:  "class, c",
			Usage: "arguments are class codes instead of vendor/device ids",
		},
	},
	Action: cmdLookup,
}

// cmdLookup implements the "lookup" subcommand.
func cmdLookup(c *cli.Context) error {
	r, err := openReader(c)
	if err != nil {
		return err
	}

	resolve := resolveDevice
	if c.Bool("class") {
		resolve = resolveClass
	}
	missing := 0
	for _, arg := range c.Args() {
		ids, err := parseIDs(arg, resolve.widths)
		if err != nil {
			return err
		}
		names, ok := resolve.fn(r, ids)
		if !ok {
			missing++
			log.Errorf("%s not found", arg)
			fmt.Printf("%s\tnot found\n", arg)
			continue
		}
		fmt.Printf("%s\t%s\n", arg, strings.Join(names, " | "))
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d ids not found", missing, len(c.Args()))
	}
	return nil
}

func openReader(c *cli.Context) (*pcidb.Reader, error) {
	path, dir := c.String("db"), c.String("dir")
	switch {
	case path != "" && dir != "":
		return nil, errors.New("--db and --dir are exclusive")
	case path != "":
		opts, err := encodingOptions(c, pcidb.Combined)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		log.V(1).Infof("Opened %s (%v strings, %v offsets)", path, opts.Strings, opts.Offsets)
		return pcidb.OpenCombined(data, opts)
	case dir != "":
		opts, err := encodingOptions(c, pcidb.Split)
		if err != nil {
			return nil, err
		}
		log.V(1).Infof("Opened %s (%v strings, %v offsets)", dir, opts.Strings, opts.Offsets)
		return pcidb.ReadSplit(dir, c.String("template"), opts)
	}
	return nil, errors.New("one of --db or --dir is required")
}

type resolver struct {
	// widths lists the accepted id counts with the bit width of each id.
	widths map[int]int
	fn     func(r *pcidb.Reader, ids []uint64) ([]string, bool)
}

var resolveDevice = resolver{
	widths: map[int]int{1: 16, 2: 16, 4: 16},
	fn: func(r *pcidb.Reader, ids []uint64) ([]string, bool) {
		v := uint16(ids[0])
		name, ok := r.Vendor(v)
		if !ok {
			return nil, false
		}
		names := []string{display(name)}
		if len(ids) == 1 {
			return names, true
		}
		d := uint16(ids[1])
		if name, ok = r.Device(v, d); !ok {
			return nil, false
		}
		names = append(names, display(name))
		if len(ids) == 2 {
			return names, true
		}
		if name, ok = r.Subdevice(v, d, uint16(ids[2]), uint16(ids[3])); !ok {
			return nil, false
		}
		return append(names, display(name)), true
	},
}

var resolveClass = resolver{
	widths: map[int]int{1: 8, 2: 8, 3: 8},
	fn: func(r *pcidb.Reader, ids []uint64) ([]string, bool) {
		c := uint8(ids[0])
		name, ok := r.Class(c)
		if !ok {
			return nil, false
		}
		names := []string{display(name)}
		if len(ids) == 1 {
			return names, true
		}
		s := uint8(ids[1])
		if name, ok = r.Subclass(c, s); !ok {
			return nil, false
		}
		names = append(names, display(name))
		if len(ids) == 2 {
			return names, true
		}
		if name, ok = r.ProgIf(c, s, uint8(ids[2])); !ok {
			return nil, false
		}
		return append(names, display(name)), true
	},
}

// parseIDs splits a colon separated list of hex ids.
func parseIDs(arg string, widths map[int]int) ([]uint64, error) {
	parts := strings.Split(arg, ":")
	bits, ok := widths[len(parts)]
	if !ok {
		return nil, fmt.Errorf("malformed id %q", arg)
	}
	ids := make([]uint64, len(parts))
	for i, p := range parts {
		id, err := strconv.ParseUint(p, 16, bits)
		if err != nil {
			return nil, fmt.Errorf("malformed id %q: %w", arg, err)
		}
		ids[i] = id
	}
	return ids, nil
}

// display decodes a code page 437 name for the terminal.
func display(name []byte) string {
	if name == nil {
		return "(unnamed)"
	}
	s, err := charmap.CodePage437.NewDecoder().Bytes(name)
	if err != nil {
		return string(name)
	}
	return string(s)
}
