package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/metadata"
	"github.com/matzehuels/spatialgen/pkg/pipeline"
)

// Entry is one record and where it lives.
type Entry struct {
	Pair   string          `json:"pair"`
	Bucket string          `json:"bucket"`
	Scene  string          `json:"scene"` // Path relative to the scene root
	Record metadata.Record `json:"record"`
}

// Image returns the image path of e under imageRoot.
func (e Entry) Image(imageRoot string) string {
	return filepath.Join(imageRoot, e.Pair, e.Bucket, e.Record.ImageFilename)
}

// Bucket summarises one <o1>_<o2>_<relation> directory.
type Bucket struct {
	Name     string `json:"name"`
	Pair     string `json:"pair"`
	Relation string `json:"relation"`
	Count    int    `json:"count"`
}

// Index is an in-memory view of a scene root.
type Index struct {
	Root      string
	Entries   []Entry
	Manifests []pipeline.Manifest
	Skipped   []string // Files that could not be decoded

	byBucket map[string][]int
	byIndex  map[int]int
}

// Load walks root and decodes every metadata file. Malformed files are
// logged and listed in Skipped; unreadable directories fail the load.
func Load(root string, logger *log.Logger) (*Index, error) {
	if logger == nil {
		logger = log.Default()
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open dataset")
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "dataset root %s is not a directory", root)
	}

	idx := &Index{Root: root}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)

		if strings.HasPrefix(name, "manifest") && filepath.Dir(rel) == "." {
			var m pipeline.Manifest
			if err := json.Unmarshal(data, &m); err != nil {
				logger.Warn("skipping malformed manifest", "path", path, "error", err)
				idx.Skipped = append(idx.Skipped, rel)
				return nil
			}
			idx.Manifests = append(idx.Manifests, m)
			return nil
		}

		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			logger.Debug("ignoring file outside the bucket layout", "path", rel)
			return nil
		}
		rec, err := metadata.Decode(data)
		if err != nil {
			logger.Warn("skipping malformed record", "path", path, "error", err)
			idx.Skipped = append(idx.Skipped, rel)
			return nil
		}
		idx.Entries = append(idx.Entries, Entry{Pair: parts[0], Bucket: parts[1], Scene: rel, Record: rec})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "walk %s", root)
	}

	slices.SortFunc(idx.Entries, func(a, b Entry) int {
		if a.Record.ImageIndex != b.Record.ImageIndex {
			return a.Record.ImageIndex - b.Record.ImageIndex
		}
		return strings.Compare(a.Scene, b.Scene)
	})
	idx.build()
	return idx, nil
}

func (x *Index) build() {
	x.byBucket = make(map[string][]int)
	x.byIndex = make(map[int]int, len(x.Entries))
	for i, e := range x.Entries {
		x.byBucket[e.Bucket] = append(x.byBucket[e.Bucket], i)
		if _, dup := x.byIndex[e.Record.ImageIndex]; !dup {
			x.byIndex[e.Record.ImageIndex] = i
		}
	}
}

// Len returns the number of records.
func (x *Index) Len() int { return len(x.Entries) }

// Get returns the record with the given image index.
func (x *Index) Get(imageIndex int) (Entry, bool) {
	i, ok := x.byIndex[imageIndex]
	if !ok {
		return Entry{}, false
	}
	return x.Entries[i], true
}

// Pairs returns the pair directory names in lexicographic order.
func (x *Index) Pairs() []string {
	var pairs []string
	for _, e := range x.Entries {
		pairs = append(pairs, e.Pair)
	}
	slices.Sort(pairs)
	return slices.Compact(pairs)
}

// Buckets returns every bucket sorted by name.
func (x *Index) Buckets() []Bucket {
	out := make([]Bucket, 0, len(x.byBucket))
	for name, ids := range x.byBucket {
		e := x.Entries[ids[0]]
		out = append(out, Bucket{Name: name, Pair: e.Pair, Relation: e.Record.Relation, Count: len(ids)})
	}
	slices.SortFunc(out, func(a, b Bucket) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Bucket returns the entries of one bucket.
func (x *Index) Bucket(name string) []Entry {
	ids := x.byBucket[name]
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = x.Entries[id]
	}
	return out
}

// Stats counts records per world relation and how many of them the camera
// sees under a different relation.
type Stats struct {
	Records    int            `json:"records"`
	Pairs      int            `json:"pairs"`
	ByRelation map[string]int `json:"by_relation"`
	Perceived  map[string]int `json:"by_perceived_relation"`
	Divergent  int            `json:"divergent"`
	Ambiguous  int            `json:"ambiguous"` // Diagonal views, not counted as divergent
}

// Stats summarises the index.
func (x *Index) Stats() Stats {
	s := Stats{
		Records:    len(x.Entries),
		Pairs:      len(x.Pairs()),
		ByRelation: make(map[string]int),
		Perceived:  make(map[string]int),
	}
	for _, e := range x.Entries {
		s.ByRelation[e.Record.Relation]++
		view := e.Record.RelativePerspective
		s.Perceived[view.Relation]++
		switch {
		case view.Ambiguous && (view.Relation == e.Record.Relation || view.Alternative == e.Record.Relation):
			s.Ambiguous++
		case view.Relation != e.Record.Relation:
			s.Divergent++
		}
	}
	return s
}

// WriteJSONL writes one record per line in index order. Each line holds
// the record fields plus the scene path.
func WriteJSONL(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode %s: %w", e.Scene, err)
		}
	}
	return nil
}
