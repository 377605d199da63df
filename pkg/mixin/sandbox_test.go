package mixin

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSandbox_Materialize(t *testing.T) {
	root := t.TempDir()
	sb, err := NewSandbox("sh_mixin", root)
	if err != nil {
		t.Fatalf("NewSandbox: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(sb.Dir()), "gomixin_sh_mixin_") {
		t.Fatalf("unexpected sandbox name %q", sb.Dir())
	}

	t.Run("pads leading lines", func(t *testing.T) {
		f, err := sb.Materialize("/src/pkg/gen.go.in", 5, "", "echo hi\n")
		if err != nil {
			t.Fatalf("Materialize: %v", err)
		}
		if f.Name != "gen.go.in" {
			t.Fatalf("name = %q", f.Name)
		}
		data, err := os.ReadFile(f.Path)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(string(data), "\n")
		if lines[4] != "echo hi" {
			t.Fatalf("text should start on line 5, got %q", data)
		}
		for _, l := range lines[:4] {
			if l != "" {
				t.Fatalf("padding lines must be blank, got %q", data)
			}
		}
	})

	t.Run("first line needs no padding", func(t *testing.T) {
		f, err := sb.Materialize("gen.go.in", 1, "", "x")
		if err != nil {
			t.Fatalf("Materialize: %v", err)
		}
		data, _ := os.ReadFile(f.Path)
		if string(data) != "x" {
			t.Fatalf("content = %q", data)
		}
	})

	t.Run("suffix appended once", func(t *testing.T) {
		f, err := sb.Materialize("gen.go.in", 1, ".go", "package main")
		if err != nil {
			t.Fatalf("Materialize: %v", err)
		}
		if f.Name != "gen.go.in.go" {
			t.Fatalf("name = %q", f.Name)
		}
		g, err := sb.Materialize("main.go", 1, ".go", "package main")
		if err != nil {
			t.Fatalf("Materialize: %v", err)
		}
		if g.Name != "main.go" {
			t.Fatalf("name = %q", g.Name)
		}
	})

	t.Run("same file is overwritten", func(t *testing.T) {
		if _, err := sb.Materialize("gen.go.in", 1, "", "first second third"); err != nil {
			t.Fatal(err)
		}
		f, err := sb.Materialize("gen.go.in", 1, "", "second")
		if err != nil {
			t.Fatal(err)
		}
		data, _ := os.ReadFile(f.Path)
		if string(data) != "second" {
			t.Fatalf("content = %q", data)
		}
	})

	if err := sb.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(sb.Dir()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("sandbox still exists after Close: %v", err)
	}
}

func TestNewSandbox_Failure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewSandbox("x", file)
	var se *SandboxError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SandboxError, got %v", err)
	}
	mustContain(t, err.Error(), "could not create temporary directory")
}

func TestMaterializedName(t *testing.T) {
	tests := []struct {
		source, suffix, want string
	}{
		{"a/b/gen.go.in", "", "gen.go.in"},
		{"a/b/gen.go.in", ".c", "gen.go.in.c"},
		{"gen.rs", ".rs", "gen.rs"},
		{"", ".py", "mixin.py"},
		{".", "", "mixin"},
		{"/", ".go", "mixin.go"},
	}
	for _, tt := range tests {
		if got := MaterializedName(tt.source, tt.suffix); got != tt.want {
			t.Errorf("MaterializedName(%q, %q) = %q, want %q", tt.source, tt.suffix, got, tt.want)
		}
	}

	sb, err := NewSandbox("x", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer sb.Close()
	f, err := sb.Materialize("", 1, ".py", "print(1)")
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if f.Name != MaterializedName("", ".py") {
		t.Fatalf("Materialize wrote %q", f.Name)
	}
}
