package pcidb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"golang.org/x/sync/errgroup"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// HeaderSize is the size of the combined file header:
// one u32 absolute offset for every segment after the Vendor table.
const HeaderSize = 4 * (numSegments - 1)

// DefaultSplitTemplate names split files; '@' is replaced by the segment letter.
const DefaultSplitTemplate = "PCIIDS_@.BIN"

// FileLayout selects how a Database is laid out on disk.
type FileLayout int

const (
	// Combined writes one file: header, six tables, string pool.
	Combined FileLayout = iota
	// Split writes one headerless file per segment.
	Split
)

func (l FileLayout) String() string {
	switch l {
	case Combined:
		return "combined"
	case Split:
		return "split"
	default:
		return fmt.Sprintf("FileLayout(%d)", int(l))
	}
}

// SegmentOffsets returns the absolute offset of every segment in the combined
// layout, followed by the total file size.
func (db *Database) SegmentOffsets() [numSegments + 1]int64 {
	var offs [numSegments + 1]int64
	offs[0] = HeaderSize
	for i, seg := range Segments {
		offs[i+1] = offs[i] + int64(len(db.Segment(seg)))
	}
	return offs
}

// WriteCombined writes the combined layout to w and returns its size.
// The header is written last, once every segment is in place.
func (db *Database) WriteCombined(w io.WriterAt) (int64, error) {
	offs := db.SegmentOffsets()
	if offs[numSegments] > math.MaxUint32 {
		return 0, fmt.Errorf("database too large: %d bytes", offs[numSegments])
	}

	for i, seg := range Segments {
		if _, err := w.WriteAt(db.Segment(seg), offs[i]); err != nil {
			return 0, err
		}
	}

	var hdr [HeaderSize]byte
	for i := 1; i < numSegments; i++ {
		binary.LittleEndian.PutUint32(hdr[4*(i-1):], uint32(offs[i]))
	}
	if _, err := w.WriteAt(hdr[:], 0); err != nil {
		return 0, err
	}
	return offs[numSegments], nil
}

// SplitName returns the file name of seg under template.
func SplitName(template string, seg Segment) string {
	return strings.Replace(template, "@", string(seg.Letter()), 1)
}

func checkTemplate(template string) error {
	if !strings.Contains(template, "@") {
		return fmt.Errorf("split file template %q has no '@' placeholder", template)
	}
	if filepath.Base(template) != template {
		return fmt.Errorf("split file template %q must be a file name", template)
	}
	return nil
}

// Create writes the database to dst in the given layout.
// For Combined, dst is the file to create; for Split, the directory to create
// the files in, named from template (DefaultSplitTemplate if empty).
func (db *Database) Create(layout FileLayout, dst, template string) error {
	switch layout {
	case Combined:
		return db.CreateCombined(dst)
	case Split:
		return db.CreateSplit(dst, template)
	default:
		return fmt.Errorf("unknown layout %v", layout)
	}
}

// CreateCombined atomically writes the combined layout to path.
// On error path is left untouched.
func (db *Database) CreateCombined(path string) error {
	return writeFileAtomic(path, func(f *os.File) error {
		_, err := db.WriteCombined(f)
		return err
	})
}

// CreateSplit writes one file per segment into dir.
// All files are written to temporaries first and only renamed into place
// once every write succeeded. On error the files in dir are left as they
// were and no temporary is left behind.
func (db *Database) CreateSplit(dir, template string) error {
	if template == "" {
		template = DefaultSplitTemplate
	}
	if err := checkTemplate(template); err != nil {
		return err
	}

	paths := make([]string, numSegments)
	for i, seg := range Segments {
		paths[i] = filepath.Join(dir, SplitName(template, seg))
	}

	var tmps [numSegments]string
	defer func() {
		for _, tmp := range tmps {
			if tmp != "" {
				os.Remove(tmp)
			}
		}
	}()

	var g errgroup.Group
	for i, seg := range Segments {
		g.Go(func() error {
			tmp, err := writeTemp(paths[i], func(f *os.File) error {
				_, err := f.Write(db.Segment(seg))
				return err
			})
			tmps[i] = tmp
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := replaceAll(tmps[:], paths); err != nil {
		return err
	}
	tmps = [numSegments]string{}
	return nil
}

// replaceAll renames every tmps[i] to paths[i] as a group.
// Existing files are moved to backups first; if any rename fails,
// every path is put back the way it was.
func replaceAll(tmps, paths []string) error {
	backups := make([]string, len(paths))
	placed := make([]bool, len(paths))
	rollback := func(err error) error {
		errs := []error{err}
		for i, path := range paths {
			switch {
			case backups[i] != "":
				errs = append(errs, os.Rename(backups[i], path))
			case placed[i]:
				errs = append(errs, os.Remove(path))
			}
		}
		return errors.Join(errs...)
	}

	for i, path := range paths {
		if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
			continue
		} else if err != nil {
			return rollback(err)
		}
		backup, err := reserveName(path, ".old*")
		if err != nil {
			return rollback(err)
		}
		if err := os.Rename(path, backup); err != nil {
			os.Remove(backup)
			return rollback(err)
		}
		backups[i] = backup
	}

	for i, path := range paths {
		if err := os.Rename(tmps[i], path); err != nil {
			return rollback(err)
		}
		placed[i] = true
	}
	for _, backup := range backups {
		if backup != "" {
			os.Remove(backup)
		}
	}
	return nil
}

// reserveName creates an empty hidden file next to path and returns its name.
func reserveName(path, pattern string) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+pattern)
	if err != nil {
		return "", err
	}
	return f.Name(), f.Close()
}

func writeFileAtomic(path string, fill func(f *os.File) error) error {
	tmp, err := writeTemp(path, fill)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Join(err, os.Remove(tmp))
	}
	return nil
}

// writeTemp creates a temporary file next to path, fills it and syncs it.
// It returns the temporary's name; on error the temporary is removed.
func writeTemp(path string, fill func(f *os.File) error) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return "", err
	}
	err = fill(f)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", errors.Join(fmt.Errorf("writing %s: %w", path, err), os.Remove(f.Name()))
	}
	return f.Name(), nil
}
