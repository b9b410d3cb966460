package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must be non-negative")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "expanded")
	s := &sample{Count: 3}
	if err := Load(writeFile(t, "name: ${SAMPLE_NAME}\n"), s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "expanded" || s.Count != 3 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_Errors(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &sample{}); err == nil {
		t.Error("expected read error")
	}
	if err := Load(writeFile(t, "name: [\n"), &sample{}); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("err = %v, want parse error", err)
	}
	if err := Load(writeFile(t, "count: -1\n"), &sample{}); err == nil || !strings.Contains(err.Error(), "validation") {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	s := &sample{Name: "default"}
	loaded, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"), s)
	if err != nil || loaded || s.Name != "default" {
		t.Errorf("missing file: loaded = %v, err = %v, s = %+v", loaded, err, s)
	}

	loaded, err = LoadOrDefault(writeFile(t, "name: file\n"), s)
	if err != nil || !loaded || s.Name != "file" {
		t.Errorf("present file: loaded = %v, err = %v, s = %+v", loaded, err, s)
	}

	bad := &sample{Count: -5}
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"), bad); err == nil {
		t.Error("defaults must still be validated")
	}
}
