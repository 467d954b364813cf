package textsource

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReadFilePlain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "essay.txt")
	if err := os.WriteFile(path, []byte("\ufeffHello world\nsecond line"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Hello world\nsecond line" {
		t.Errorf("ReadFile() = %q", got)
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "blob.bin")
	if err := os.WriteFile(binary, []byte{0xff, 0xfe, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(binary); err == nil {
		t.Error("invalid UTF-8 accepted")
	}
	if _, err := ReadFile(filepath.Join(dir, "missing.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
	notPDF := filepath.Join(dir, "fake.PDF")
	if err := os.WriteFile(notPDF, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(notPDF); err == nil {
		t.Error("non-PDF content with .pdf extension accepted")
	}
}

func TestNormalizeLines(t *testing.T) {
	got := normalizeLines("  Certificate   of  Achievement \n\n\t John   Smith\n ")
	if want := "Certificate of Achievement\nJohn Smith"; got != want {
		t.Errorf("normalizeLines() = %q, want %q", got, want)
	}
}
