package main

import (
	"fmt"
	"github.com/codegangsta/cli"
	"github.com/jordanwade90/pcidb"
	"github.com/jordanwade90/pcidb/record"
)

// Flags shared by the commands that read or write a database.
var (
	stringsFlag = cli.StringFlag{
		Name:  "strings",
		Usage: "string pool format: lp (length-prefixed) or nul (default: lp for combined, nul for split)",
	}
	offsetsFlag = cli.StringFlag{
		Name:  "offsets",
		Usage: "unit of table references: bytes or records (default: bytes for combined, records for split)",
	}
	templateFlag = cli.StringFlag{
		Name:  "template",
		Usage: "split file name template, '@' standing for the segment letter",
		Value: pcidb.DefaultSplitTemplate,
	}
)

func parseLayout(s string) (pcidb.FileLayout, error) {
	switch s {
	case "combined":
		return pcidb.Combined, nil
	case "split":
		return pcidb.Split, nil
	}
	return 0, fmt.Errorf("unknown layout %q, want combined or split", s)
}

func parseStrings(s string) (record.StringFormat, error) {
	switch s {
	case "lp", "length-prefixed":
		return record.LengthPrefixed, nil
	case "nul", "nul-terminated":
		return record.NULTerminated, nil
	}
	return 0, fmt.Errorf("unknown string format %q, want lp or nul", s)
}

func parseOffsets(s string) (pcidb.OffsetUnit, error) {
	switch s {
	case "bytes":
		return pcidb.ByteOffsets, nil
	case "records":
		return pcidb.RecordIndices, nil
	}
	return 0, fmt.Errorf("unknown offset unit %q, want bytes or records", s)
}

// layoutOptions returns the encoding the firmware reader expects for a layout:
// the split files are read by pcireg, which indexes records and expects
// NUL-terminated names.
func layoutOptions(layout pcidb.FileLayout) pcidb.Options {
	if layout == pcidb.Split {
		return pcidb.Options{Strings: record.NULTerminated, Offsets: pcidb.RecordIndices}
	}
	return pcidb.DefaultOptions
}

// encodingOptions applies the --strings and --offsets flags on top of the
// defaults for layout.
func encodingOptions(c *cli.Context, layout pcidb.FileLayout) (pcidb.Options, error) {
	opts := layoutOptions(layout)
	var err error
	if s := c.String("strings"); s != "" {
		if opts.Strings, err = parseStrings(s); err != nil {
			return opts, err
		}
	}
	if s := c.String("offsets"); s != "" {
		if opts.Offsets, err = parseOffsets(s); err != nil {
			return opts, err
		}
	}
	return opts, nil
}
