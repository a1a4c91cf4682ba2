package library

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"pictor/internal/imagefile"
	"pictor/internal/services"
	"pictor/internal/testsupport"
)

func buildFixtureDir(t *testing.T) (string, map[string]string) {
	t.Helper()
	dir := t.TempDir()
	paths := map[string]string{
		"b.png":     testsupport.WriteFile(t, dir, "b.png", testsupport.PNG(t, nil)),
		"a.png":     testsupport.WriteFile(t, dir, "a.png", testsupport.PNG(t, nil)),
		"c.jpg":     testsupport.WriteFile(t, dir, "c.jpg", testsupport.JPEG(t)),
		"img2.png":  testsupport.WriteFile(t, dir, "img2.png", testsupport.PNG(t, nil)),
		"img10.png": testsupport.WriteFile(t, dir, "img10.png", testsupport.PNG(t, nil)),
	}
	// Distractors: unsupported extension, wrong content behind image extension.
	testsupport.WriteFile(t, dir, "notes.txt", []byte("not an image"))
	testsupport.WriteFile(t, dir, "fake.png", []byte("plain text body"))
	return dir, paths
}

func names(x *Index) []string {
	entries := x.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestBuildOrderingAndFiltering(t *testing.T) {
	dir, _ := buildFixtureDir(t)
	index, err := Build(dir)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := []string{"a.png", "b.png", "c.jpg", "img2.png", "img10.png"}
	if got := names(index); !reflect.DeepEqual(got, want) {
		t.Errorf("ordering = %v, want %v", got, want)
	}
}

func TestBuildDeterministic(t *testing.T) {
	dir, _ := buildFixtureDir(t)
	first, err := Build(dir)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Build(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names(first), names(second)) {
		t.Errorf("two builds of an unchanged directory differ: %v vs %v", names(first), names(second))
	}
}

func TestBuildSniffsFormat(t *testing.T) {
	dir, paths := buildFixtureDir(t)
	index, err := Build(dir)
	if err != nil {
		t.Fatal(err)
	}
	pos, ok := index.PositionOf(paths["c.jpg"])
	if !ok {
		t.Fatal("c.jpg missing from index")
	}
	entry, _ := index.Entry(pos)
	if entry.Format != imagefile.FormatJPEG {
		t.Errorf("format = %v, want FormatJPEG", entry.Format)
	}
}

func TestBuildMissingDirectory(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNavigationBounded(t *testing.T) {
	dir, _ := buildFixtureDir(t)
	index, err := Build(dir)
	if err != nil {
		t.Fatal(err)
	}
	last := index.Len() - 1

	if got := index.Next(last); got != last {
		t.Errorf("Next at last = %d, want %d (no wraparound)", got, last)
	}
	if got := index.Previous(0); got != 0 {
		t.Errorf("Previous at 0 = %d, want 0", got)
	}
	if got := index.Next(0); got != 1 {
		t.Errorf("Next(0) = %d, want 1", got)
	}
	if got := index.Previous(last); got != last-1 {
		t.Errorf("Previous(last) = %d, want %d", got, last-1)
	}
}

func TestApplyDiffRemove(t *testing.T) {
	dir, paths := buildFixtureDir(t)
	index, err := Build(dir)
	if err != nil {
		t.Fatal(err)
	}

	next := index.ApplyDiff(Diff{Removed: []string{paths["b.png"]}})
	want := []string{"a.png", "c.jpg", "img2.png", "img10.png"}
	if got := names(next); !reflect.DeepEqual(got, want) {
		t.Errorf("after removal = %v, want %v", got, want)
	}
	// Original snapshot untouched.
	if index.Len() != 5 {
		t.Error("ApplyDiff must not mutate the source index")
	}
}

func TestApplyDiffAddSortsIntoPlace(t *testing.T) {
	dir, _ := buildFixtureDir(t)
	index, err := Build(dir)
	if err != nil {
		t.Fatal(err)
	}

	added := testsupport.WriteFile(t, dir, "ab.png", testsupport.PNG(t, nil))
	next := index.ApplyDiff(Diff{Added: []string{added}})

	want := []string{"a.png", "ab.png", "b.png", "c.jpg", "img2.png", "img10.png"}
	if got := names(next); !reflect.DeepEqual(got, want) {
		t.Errorf("after addition = %v, want %v", got, want)
	}
}

func TestApplyDiffIgnoresVanishedAdds(t *testing.T) {
	dir, _ := buildFixtureDir(t)
	index, err := Build(dir)
	if err != nil {
		t.Fatal(err)
	}
	next := index.ApplyDiff(Diff{Added: []string{filepath.Join(dir, "ghost.png")}})
	if next.Len() != index.Len() {
		t.Error("a vanished addition must not create an entry")
	}
}

func TestApplyDiffDuplicateAdd(t *testing.T) {
	dir, paths := buildFixtureDir(t)
	index, err := Build(dir)
	if err != nil {
		t.Fatal(err)
	}
	next := index.ApplyDiff(Diff{Added: []string{paths["a.png"]}})
	if next.Len() != index.Len() {
		t.Errorf("duplicate add changed length: %d -> %d", index.Len(), next.Len())
	}
}

func TestApplyDiffModifiedRefreshesStat(t *testing.T) {
	dir, paths := buildFixtureDir(t)
	index, err := Build(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Rewrite a.png so its mod time moves forward.
	testsupport.WriteFile(t, dir, "a.png", testsupport.PNG(t, map[string]string{"parameters": "x\nSteps: 1"}))

	next := index.ApplyDiff(Diff{Modified: []string{paths["a.png"]}})
	pos, ok := next.PositionOf(paths["a.png"])
	if !ok {
		t.Fatal("modified entry missing")
	}
	fresh, _ := next.Entry(pos)
	old, _ := index.Entry(pos)
	if fresh.ModTime.Before(old.ModTime) {
		t.Error("modified entry should carry the refreshed mod time")
	}
}

func TestDiffEmpty(t *testing.T) {
	if !(Diff{}).Empty() {
		t.Error("zero diff should be empty")
	}
	if (Diff{Modified: []string{"x"}}).Empty() {
		t.Error("diff with entries should not be empty")
	}
}

func TestEntryOutOfRange(t *testing.T) {
	dir, _ := buildFixtureDir(t)
	index, err := Build(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := index.Entry(-1); ok {
		t.Error("Entry(-1) should not exist")
	}
	if _, ok := index.Entry(index.Len()); ok {
		t.Error("Entry(len) should not exist")
	}
	if _, ok := index.PositionOf("/no/such/path.png"); ok {
		t.Error("PositionOf unknown path should be false")
	}
}
