package pcidb

import (
	"github.com/goccy/go-json"
	"os"
)

// Manifest summarizes a build for tooling and humans.
type Manifest struct {
	Layout   string            `json:"layout"`
	Strings  string            `json:"strings"`
	Offsets  string            `json:"offsets"`
	Names    int               `json:"names"`
	Size     int64             `json:"size"`
	Segments []SegmentManifest `json:"segments"`
}

// SegmentManifest describes one segment.
type SegmentManifest struct {
	Name string `json:"name"`
	// File is set for the split layout.
	File string `json:"file,omitempty"`
	// Offset is the absolute file offset in the combined layout; 0 when split.
	Offset  int64 `json:"offset"`
	Size    int   `json:"size"`
	Records int   `json:"records,omitempty"`
}

// Manifest describes db as written with layout and template.
func (db *Database) Manifest(layout FileLayout, template string) *Manifest {
	if template == "" {
		template = DefaultSplitTemplate
	}
	m := &Manifest{
		Layout:  layout.String(),
		Strings: db.opts.Strings.String(),
		Offsets: db.opts.Offsets.String(),
		Names:   db.Names(),
	}

	offs := db.SegmentOffsets()
	for i, seg := range Segments {
		sm := SegmentManifest{
			Name: seg.String(),
			Size: len(db.Segment(seg)),
		}
		if seg.IsTable() {
			sm.Records = db.Table(seg).Records()
		}
		if layout == Split {
			sm.File = SplitName(template, seg)
			m.Size += int64(sm.Size)
		} else {
			sm.Offset = offs[i]
		}
		m.Segments = append(m.Segments, sm)
	}
	if layout != Split {
		m.Size = offs[numSegments]
	}
	return m
}

// Marshal encodes the manifest as indented JSON.
func (m *Manifest) Marshal() ([]byte, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// WriteFile atomically writes the manifest to path.
func (m *Manifest) WriteFile(path string) error {
	b, err := m.Marshal()
	if err != nil {
		return err
	}
	return writeFileAtomic(path, func(f *os.File) error {
		_, err := f.Write(b)
		return err
	})
}
