package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveRejectsEscape(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Resolve("recordings/se1/a.mp4"); err != nil {
		t.Fatalf("normal path rejected: %v", err)
	}
	// filepath.Clean 已把 .. 折叠回根目录内，不应逃逸
	abs, err := s.Resolve("../../etc/passwd")
	if err != nil {
		t.Fatalf("cleaned path rejected: %v", err)
	}
	if !strings.HasPrefix(abs, s.Root()) {
		t.Fatalf("resolved path %q escapes root %q", abs, s.Root())
	}
}

func TestSaveAndStat(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	rel := s.RecordingPath("se_123", "exam.mp4")
	n, err := s.Save(rel, strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("wrote %d bytes, want 5", n)
	}

	abs, size, err := s.Stat(rel)
	if err != nil {
		t.Fatal(err)
	}
	if size != 5 {
		t.Fatalf("stat size %d, want 5", size)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("content %q", data)
	}

	// 写入后目录下不应残留临时文件
	entries, err := os.ReadDir(filepath.Dir(abs))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("unexpected leftover files: %d", len(entries))
	}
}

func TestRemoveMissingFile(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("clips/nope/flag_1.mp4"); err != nil {
		t.Fatalf("remove of missing file should succeed: %v", err)
	}
}
