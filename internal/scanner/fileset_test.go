package scanner

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestFileSetOrderAndDedup(t *testing.T) {
	s := NewFileSet()
	if !s.Add(FileEntry{Path: "/b"}) || !s.Add(FileEntry{Path: "/a"}) {
		t.Fatal("first Add should succeed")
	}
	if s.Add(FileEntry{Path: "/b"}) {
		t.Error("duplicate path should be rejected")
	}
	if n := s.AddAll([]FileEntry{{Path: "/a"}, {Path: "/c"}}); n != 1 {
		t.Errorf("AddAll() = %d, want 1", n)
	}

	entries := s.Entries()
	if len(entries) != 3 || entries[0].Path != "/b" || entries[1].Path != "/a" || entries[2].Path != "/c" {
		t.Errorf("Entries() = %+v", entries)
	}
}

func TestFileSetRemove(t *testing.T) {
	s := NewFileSet()
	s.AddAll([]FileEntry{{Path: "/x"}, {Path: "/y"}, {Path: "/z"}})

	if !s.Remove("/y") || s.Remove("/y") {
		t.Error("Remove should report presence once")
	}
	if s.Contains("/y") || s.Len() != 2 {
		t.Errorf("Len() = %d after remove", s.Len())
	}
	if e := s.Entries(); e[0].Path != "/x" || e[1].Path != "/z" {
		t.Errorf("order lost after remove: %+v", e)
	}

	// re-adding goes to the end
	s.Add(FileEntry{Path: "/y"})
	if e := s.Entries(); e[2].Path != "/y" {
		t.Errorf("re-added path should be last: %+v", e)
	}
}

func TestFileSetRemoveUnder(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "data", "photos")
	s := NewFileSet()
	s.AddAll([]FileEntry{
		{Path: filepath.Join(dir, "a.jpg")},
		{Path: filepath.Join(dir, "sub", "b.jpg")},
		{Path: dir + "-old" + string(filepath.Separator) + "c.jpg"},
		{Path: filepath.Join(string(filepath.Separator), "data", "other.txt")},
	})

	if n := s.RemoveUnder(dir); n != 2 {
		t.Errorf("RemoveUnder() = %d, want 2", n)
	}
	if !s.Contains(dir+"-old"+string(filepath.Separator)+"c.jpg") {
		t.Error("sibling directory sharing a name prefix must survive")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestFileSetConcurrentAdd(t *testing.T) {
	s := NewFileSet()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Add(FileEntry{Path: filepath.Join("/", string(rune('a'+w)), string(rune('a'+i%26)), "f")})
			}
		}(w)
	}
	wg.Wait()

	if s.Len() != 8*26 {
		t.Errorf("Len() = %d, want %d", s.Len(), 8*26)
	}
	s.Clear()
	if s.Len() != 0 || len(s.Entries()) != 0 {
		t.Error("Clear() should empty the set")
	}
}
