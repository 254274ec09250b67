package scanner

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/fenilsonani/dupcleaner/internal/hasher"
	"github.com/spf13/afero"
)

// memFiles writes contents into a MemMapFs and returns the entries in the
// order given
func memFiles(t *testing.T, fs afero.Fs, files map[string][]byte, order []string) []FileEntry {
	t.Helper()
	entries := make([]FileEntry, 0, len(order))
	for _, p := range order {
		if err := afero.WriteFile(fs, p, files[p], 0644); err != nil {
			t.Fatalf("WriteFile(%s): %v", p, err)
		}
		entries = append(entries, FileEntry{Path: p, Size: uint64(len(files[p])), ModTime: time.Now()})
	}
	return entries
}

// countingDigester records every digest request
type countingDigester struct {
	inner Digester
	calls map[hasher.Mode]int
	fail  map[string]bool
}

func newCountingDigester(inner Digester) *countingDigester {
	return &countingDigester{inner: inner, calls: make(map[hasher.Mode]int), fail: make(map[string]bool)}
}

func (c *countingDigester) Digest(path string, mode hasher.Mode) (hasher.Digest, error) {
	c.calls[mode]++
	if c.fail[path] {
		return "", errors.New("read error")
	}
	return c.inner.Digest(path, mode)
}

func TestGroupSizesScenario(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := []byte("0123456789")
	entries := memFiles(t, fs, map[string][]byte{
		"/a.bin": content,
		"/b.bin": content,
		"/c.bin": []byte("01234567890123456789"),
	}, []string{"/a.bin", "/b.bin", "/c.bin"})

	g := NewGrouper(hasher.New(fs, hasher.AlgorithmMD5), GrouperOptions{MinSize: 1})
	groups, err := g.GroupFiles(entries, Hooks{})
	if err != nil {
		t.Fatalf("GroupFiles() error = %v", err)
	}

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].ID != 1 || groups[0].Len() != 2 {
		t.Errorf("unexpected group %+v", groups[0])
	}
	for _, f := range groups[0].Files {
		if f.Path == "/c.bin" {
			t.Error("the 20-byte file must not be grouped")
		}
	}
}

func TestGroupDistinctSizesNeverGrouped(t *testing.T) {
	fs := afero.NewMemMapFs()
	entries := memFiles(t, fs, map[string][]byte{
		"/1": []byte("a"),
		"/2": []byte("aa"),
		"/3": []byte("aaa"),
	}, []string{"/1", "/2", "/3"})

	d := newCountingDigester(hasher.New(fs, ""))
	g := NewGrouper(d, GrouperOptions{})
	groups, err := g.GroupFiles(entries, Hooks{})
	if err != nil {
		t.Fatalf("GroupFiles() error = %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
	if d.calls[hasher.ModeQuick]+d.calls[hasher.ModeFull] != 0 {
		t.Errorf("singleton size buckets must not be hashed, calls = %v", d.calls)
	}
}

func TestGroupSamePrefixDifferentTail(t *testing.T) {
	fs := afero.NewMemMapFs()
	size := hasher.QuickHashSize + 100
	a := bytes.Repeat([]byte{'x'}, size)
	b := bytes.Repeat([]byte{'x'}, size)
	b[size-1] = 'y'

	entries := memFiles(t, fs, map[string][]byte{
		"/a": a, "/a-copy": a, "/b": b,
	}, []string{"/a", "/b", "/a-copy"})

	d := newCountingDigester(hasher.New(fs, hasher.AlgorithmXXHash))
	g := NewGrouper(d, GrouperOptions{})
	groups, err := g.GroupFiles(entries, Hooks{})
	if err != nil {
		t.Fatalf("GroupFiles() error = %v", err)
	}

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	got := groups[0].Paths()
	if len(got) != 2 || got[0] != "/a" || got[1] != "/a-copy" {
		t.Errorf("group paths = %v, want [/a /a-copy] in discovery order", got)
	}
	if d.calls[hasher.ModeQuick] != 3 || d.calls[hasher.ModeFull] != 3 {
		t.Errorf("digest calls = %v, want 3 quick and 3 full", d.calls)
	}
}

func TestGroupSmallFilesSkipFullStage(t *testing.T) {
	fs := afero.NewMemMapFs()
	entries := memFiles(t, fs, map[string][]byte{
		"/x": []byte("same"), "/y": []byte("same"),
	}, []string{"/x", "/y"})

	d := newCountingDigester(hasher.New(fs, ""))
	groups, err := NewGrouper(d, GrouperOptions{}).GroupFiles(entries, Hooks{})
	if err != nil {
		t.Fatalf("GroupFiles() error = %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if d.calls[hasher.ModeFull] != 0 {
		t.Errorf("files within the quick window should not be read twice, full calls = %d", d.calls[hasher.ModeFull])
	}
}

func TestGroupHashErrorDropsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := []byte("duplicate content")
	entries := memFiles(t, fs, map[string][]byte{
		"/1": content, "/2": content, "/3": content,
	}, []string{"/1", "/2", "/3"})

	d := newCountingDigester(hasher.New(fs, ""))
	d.fail["/2"] = true

	var after, errs int
	hooks := Hooks{
		After: func(stage Stage, f FileEntry, err error) {
			after++
			if err != nil {
				errs++
			}
		},
	}

	groups, err := NewGrouper(d, GrouperOptions{}).GroupFiles(entries, hooks)
	if err != nil {
		t.Fatalf("GroupFiles() error = %v", err)
	}
	if len(groups) != 1 || groups[0].Len() != 2 {
		t.Fatalf("expected one group of 2, got %+v", groups)
	}
	if after != 3 || errs != 1 {
		t.Errorf("after = %d, errs = %d, want 3 and 1", after, errs)
	}
}

func TestGroupSizeLimits(t *testing.T) {
	fs := afero.NewMemMapFs()
	entries := memFiles(t, fs, map[string][]byte{
		"/e1": {}, "/e2": {},
		"/s1": []byte("ab"), "/s2": []byte("ab"),
		"/l1": []byte("abcdef"), "/l2": []byte("abcdef"),
	}, []string{"/e1", "/e2", "/s1", "/s2", "/l1", "/l2"})

	g := NewGrouper(hasher.New(fs, ""), GrouperOptions{MinSize: 1, MaxSize: 4})
	groups, err := g.GroupFiles(entries, Hooks{})
	if err != nil {
		t.Fatalf("GroupFiles() error = %v", err)
	}
	if len(groups) != 1 || groups[0].Size != 2 {
		t.Errorf("expected only the 2-byte pair, got %+v", groups)
	}
}

func TestSizeBucketsOrderAndDedup(t *testing.T) {
	g := NewGrouper(nil, GrouperOptions{})
	files := []FileEntry{
		{Path: "/b1", Size: 5},
		{Path: "/a1", Size: 3},
		{Path: "/b2", Size: 5},
		{Path: "/a1", Size: 3},
		{Path: "/a2", Size: 3},
		{Path: "/solo", Size: 9},
	}

	buckets := g.SizeBuckets(files)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0][0].Path != "/b1" || buckets[1][0].Path != "/a1" {
		t.Errorf("buckets not in first-discovery order: %v", buckets)
	}
	if len(buckets[1]) != 2 {
		t.Errorf("repeated path counted twice: %v", buckets[1])
	}
	if CandidateCount(buckets) != 4 {
		t.Errorf("CandidateCount = %d, want 4", CandidateCount(buckets))
	}
}

func TestGroupStopsOnBeforeError(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string][]byte{}
	var order []string
	// Two size buckets of two identical files each
	for i, c := range []string{"aaaa", "aaaa", "bbbbbbbb", "bbbbbbbb"} {
		p := fmt.Sprintf("/f%d", i)
		files[p] = []byte(c)
		order = append(order, p)
	}
	entries := memFiles(t, fs, files, order)

	stop := errors.New("stop")
	calls := 0
	hooks := Hooks{
		Before: func(stage Stage, f FileEntry) error {
			calls++
			if calls > 3 {
				return stop
			}
			return nil
		},
	}

	groups, err := NewGrouper(hasher.New(fs, ""), GrouperOptions{}).GroupFiles(entries, hooks)
	if !errors.Is(err, stop) {
		t.Fatalf("err = %v, want stop", err)
	}
	if len(groups) != 1 || groups[0].Size != 4 {
		t.Errorf("groups from the finished bucket should be kept, got %+v", groups)
	}
}

// Every group has two or more members with equal content, no file is in two
// groups, and a second run yields the same membership.
func TestGroupPartitionAndIdempotence(t *testing.T) {
	fs := afero.NewMemMapFs()
	contents := [][]byte{
		[]byte("alpha"), []byte("alpha"), []byte("bravo"), []byte("alpha"),
		[]byte("bravo"), []byte("delta!"), []byte("gamma"), []byte("delta!"),
	}
	files := map[string][]byte{}
	var order []string
	for i, c := range contents {
		p := fmt.Sprintf("/dir/%02d", i)
		files[p] = c
		order = append(order, p)
	}
	entries := memFiles(t, fs, files, order)
	g := NewGrouper(hasher.New(fs, ""), GrouperOptions{})

	first, err := g.GroupFiles(entries, Hooks{})
	if err != nil {
		t.Fatalf("GroupFiles() error = %v", err)
	}

	seen := map[string]int{}
	for _, grp := range first {
		if grp.Len() < 2 {
			t.Errorf("group %d has %d members", grp.ID, grp.Len())
		}
		for _, f := range grp.Files {
			if prev, ok := seen[f.Path]; ok {
				t.Errorf("%s in groups %d and %d", f.Path, prev, grp.ID)
			}
			seen[f.Path] = grp.ID
			if !bytes.Equal(files[f.Path], files[grp.Files[0].Path]) {
				t.Errorf("group %d mixes contents", grp.ID)
			}
		}
	}
	if len(first) != 3 {
		t.Errorf("expected 3 groups, got %d", len(first))
	}

	second, err := g.GroupFiles(entries, Hooks{})
	if err != nil {
		t.Fatalf("second GroupFiles() error = %v", err)
	}
	if fmt.Sprint(membership(first)) != fmt.Sprint(membership(second)) {
		t.Errorf("runs differ:\n%v\n%v", membership(first), membership(second))
	}
}

func membership(groups []DuplicateGroup) []string {
	var out []string
	for _, g := range groups {
		paths := g.Paths()
		sort.Strings(paths)
		out = append(out, fmt.Sprint(paths))
	}
	sort.Strings(out)
	return out
}
