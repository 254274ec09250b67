package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fenilsonani/dupcleaner/internal/eventlog"
	"github.com/fenilsonani/dupcleaner/internal/hasher"
	"github.com/spf13/afero"
)

// benchFiles writes n files into fs where every dupEvery-th file repeats
// the previous content
func benchFiles(b *testing.B, fs afero.Fs, n, size, dupEvery int) []FileEntry {
	b.Helper()
	entries := make([]FileEntry, 0, n)
	for i := 0; i < n; i++ {
		content := make([]byte, size)
		seed := i
		if dupEvery > 0 && i%dupEvery == 0 && i > 0 {
			seed = i - 1
		}
		copy(content, fmt.Sprintf("file-%08d", seed))
		p := fmt.Sprintf("/data/%04d.bin", i)
		if err := afero.WriteFile(fs, p, content, 0644); err != nil {
			b.Fatal(err)
		}
		entries = append(entries, FileEntry{Path: p, Size: uint64(size), ModTime: time.Now()})
	}
	return entries
}

// =============================================================================
// Grouper Benchmarks
// =============================================================================

func BenchmarkSizeBuckets(b *testing.B) {
	files := make([]FileEntry, 10000)
	for i := range files {
		files[i] = FileEntry{Path: fmt.Sprintf("/f/%d", i), Size: uint64(i % 997)}
	}
	g := NewGrouper(nil, GrouperOptions{MinSize: 1})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.SizeBuckets(files)
	}
}

func BenchmarkGroupFiles(b *testing.B) {
	for _, algo := range []hasher.Algorithm{hasher.AlgorithmMD5, hasher.AlgorithmXXHash} {
		b.Run(string(algo), func(b *testing.B) {
			fs := afero.NewMemMapFs()
			files := benchFiles(b, fs, 200, 4096, 3)
			g := NewGrouper(hasher.New(fs, algo), GrouperOptions{MinSize: 1})

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := g.GroupFiles(files, Hooks{}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkGroupLargeFiles(b *testing.B) {
	fs := afero.NewMemMapFs()
	// larger than one quick digest so the full pass streams
	files := benchFiles(b, fs, 20, 256*1024, 2)
	g := NewGrouper(hasher.New(fs, hasher.AlgorithmXXHash), GrouperOptions{MinSize: 1})

	b.SetBytes(int64(len(files) * 256 * 1024))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := g.GroupFiles(files, Hooks{}); err != nil {
			b.Fatal(err)
		}
	}
}

// =============================================================================
// FileSet Benchmarks
// =============================================================================

func BenchmarkFileSetAdd(b *testing.B) {
	entries := make([]FileEntry, 5000)
	for i := range entries {
		entries[i] = FileEntry{Path: fmt.Sprintf("/data/dir%d/file%d", i%50, i)}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := NewFileSet()
		s.AddAll(entries)
	}
}

func BenchmarkFileSetRemoveUnder(b *testing.B) {
	entries := make([]FileEntry, 5000)
	for i := range entries {
		entries[i] = FileEntry{Path: fmt.Sprintf("/data/dir%d/file%d", i%50, i)}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		s := NewFileSet()
		s.AddAll(entries)
		b.StartTimer()
		s.RemoveUnder("/data/dir7")
	}
}

func BenchmarkFileSetParallel(b *testing.B) {
	s := NewFileSet()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			p := fmt.Sprintf("/p/%d", i%1000)
			s.Add(FileEntry{Path: p})
			s.Contains(p)
			i++
		}
	})
}

// =============================================================================
// Enumerator Benchmarks
// =============================================================================

func BenchmarkEnumerate(b *testing.B) {
	root := b.TempDir()
	for d := 0; d < 10; d++ {
		dir := filepath.Join(root, fmt.Sprintf("dir%d", d))
		if err := os.MkdirAll(dir, 0755); err != nil {
			b.Fatal(err)
		}
		for f := 0; f < 50; f++ {
			if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%d.txt", f)), []byte("x"), 0644); err != nil {
				b.Fatal(err)
			}
		}
	}
	e := NewEnumerator(eventlog.Discard(), 4)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		files, err := collect(context.Background(), e, root)
		if err != nil {
			b.Fatal(err)
		}
		if len(files) != 500 {
			b.Fatalf("enumerated %d files, want 500", len(files))
		}
	}
}

func BenchmarkSizeBucketsAllocs(b *testing.B) {
	files := make([]FileEntry, 1000)
	for i := range files {
		files[i] = FileEntry{Path: fmt.Sprintf("/f/%d", i), Size: uint64(i % 100)}
	}
	g := NewGrouper(nil, GrouperOptions{})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.SizeBuckets(files)
	}
}
