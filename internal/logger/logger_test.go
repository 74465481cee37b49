package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatorWritesToNewFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")
	r := &Rotator{Filename: path, MaxSize: 1024 * 1024, MaxBackups: 3}

	if _, err := r.Write([]byte("hello\n")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file content = %q, want to contain hello", data)
	}
}

func TestRotatorRotatesWhenSizeExceeded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")
	r := &Rotator{Filename: path, MaxSize: 10, MaxBackups: 2}

	if _, err := r.Write([]byte("0123456789")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Write([]byte("more-data-that-triggers-rotation")); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected a .1 backup to exist after exceeding MaxSize: %v", err)
	}
}

func TestRotatorOpenExistingAppendsRatherThanTruncates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")
	if err := os.WriteFile(path, []byte("existing\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r := &Rotator{Filename: path, MaxSize: 1024 * 1024, MaxBackups: 3}
	if _, err := r.Write([]byte("appended\n")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "existing") || !strings.Contains(string(data), "appended") {
		t.Errorf("log file content = %q, want both existing and appended data", data)
	}
}
