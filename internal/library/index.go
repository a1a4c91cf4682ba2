package library

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"pictor/internal/imagefile"
	"pictor/internal/services"
)

// Diff is the settled delta between two snapshots of a directory listing.
// Slices carry absolute paths; within one Diff no ordering is guaranteed, so
// consumers treat each slice as a set.
type Diff struct {
	Added    []string
	Removed  []string
	Modified []string
}

// Empty reports whether the diff carries no changes.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// Index is an ordered snapshot of a directory's supported image entries.
// Ordering is deterministic: numeric-aware collation on file name, with the
// full path as tie break. Index values are immutable; ApplyDiff returns a
// new one.
type Index struct {
	dir     string
	entries []imagefile.Entry
}

// Build enumerates dir's immediate children, keeping files that pass the
// extension prefilter and sniff as a supported container. It errors only when
// the directory itself cannot be listed.
func Build(dir string) (*Index, error) {
	listing, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Classify("library", "build", err)
	}

	entries := make([]imagefile.Entry, 0, len(listing))
	for _, item := range listing {
		if item.IsDir() || !imagefile.HasSupportedExtension(item.Name()) {
			continue
		}
		if entry, ok := entryForPath(filepath.Join(dir, item.Name())); ok {
			entries = append(entries, entry)
		}
	}

	sortEntries(entries)
	return &Index{dir: dir, entries: entries}, nil
}

// entryForPath stats and sniffs one file. Files that vanish or fail the
// sniff between listing and open are silently excluded.
func entryForPath(path string) (imagefile.Entry, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return imagefile.Entry{}, false
	}
	format, err := imagefile.SniffFile(path)
	if err != nil || format == imagefile.FormatUnsupported {
		return imagefile.Entry{}, false
	}
	return imagefile.Entry{
		Path:    path,
		Name:    filepath.Base(path),
		ModTime: info.ModTime(),
		Format:  format,
	}, true
}

func sortEntries(entries []imagefile.Entry) {
	collator := collate.New(language.Und, collate.Numeric)
	sort.SliceStable(entries, func(i, j int) bool {
		if cmp := collator.CompareString(entries[i].Name, entries[j].Name); cmp != 0 {
			return cmp < 0
		}
		return strings.Compare(entries[i].Path, entries[j].Path) < 0
	})
}

// Dir returns the directory this index was built from.
func (x *Index) Dir() string { return x.dir }

// Len returns the number of entries.
func (x *Index) Len() int { return len(x.entries) }

// Entries returns a copy of the ordered entry slice.
func (x *Index) Entries() []imagefile.Entry {
	out := make([]imagefile.Entry, len(x.entries))
	copy(out, x.entries)
	return out
}

// Entry returns the entry at position i.
func (x *Index) Entry(i int) (imagefile.Entry, bool) {
	if i < 0 || i >= len(x.entries) {
		return imagefile.Entry{}, false
	}
	return x.entries[i], true
}

// PositionOf locates a path in the ordered sequence.
func (x *Index) PositionOf(path string) (int, bool) {
	for i, entry := range x.entries {
		if entry.Path == path {
			return i, true
		}
	}
	return -1, false
}

// Next returns the position after i. Navigation is bounded: at the last
// entry the position is unchanged.
func (x *Index) Next(i int) int {
	if i < 0 || i+1 >= len(x.entries) {
		return i
	}
	return i + 1
}

// Previous returns the position before i, unchanged at the first entry.
func (x *Index) Previous(i int) int {
	if i <= 0 {
		return i
	}
	return i - 1
}

// ApplyDiff produces a new index reflecting the diff. Unaffected entries
// keep their relative order; additions are placed at their sorted position;
// modified entries get a fresh stat. Added paths that no longer exist or do
// not sniff as supported are ignored.
func (x *Index) ApplyDiff(diff Diff) *Index {
	removed := make(map[string]struct{}, len(diff.Removed))
	for _, path := range diff.Removed {
		removed[path] = struct{}{}
	}
	modified := make(map[string]struct{}, len(diff.Modified))
	for _, path := range diff.Modified {
		modified[path] = struct{}{}
	}
	existing := make(map[string]struct{}, len(x.entries))

	next := make([]imagefile.Entry, 0, len(x.entries)+len(diff.Added))
	for _, entry := range x.entries {
		if _, gone := removed[entry.Path]; gone {
			continue
		}
		if _, changed := modified[entry.Path]; changed {
			if fresh, ok := entryForPath(entry.Path); ok {
				entry = fresh
			}
		}
		existing[entry.Path] = struct{}{}
		next = append(next, entry)
	}

	added := false
	for _, path := range diff.Added {
		if _, dup := existing[path]; dup {
			continue
		}
		if entry, ok := entryForPath(path); ok {
			next = append(next, entry)
			existing[path] = struct{}{}
			added = true
		}
	}
	if added {
		sortEntries(next)
	}

	return &Index{dir: x.dir, entries: next}
}
