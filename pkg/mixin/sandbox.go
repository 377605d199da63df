package mixin

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Sandbox is a per-extension scratch directory. Foreign code is written
// into it and every child process runs with it as working directory.
type Sandbox struct {
	dir string
}

// MaterializedFile is foreign code written into a sandbox. Name is relative
// to the sandbox directory and is what child processes receive.
type MaterializedFile struct {
	Name string
	Path string
}

// NewSandbox creates a fresh directory under root, or under the system temp
// directory when root is empty.
func NewSandbox(name, root string) (*Sandbox, error) {
	if root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, &SandboxError{Op: "could not create temporary directory", Path: root, Err: err}
		}
	}
	dir, err := os.MkdirTemp(root, "gomixin_"+name+"_")
	if err != nil {
		return nil, &SandboxError{Op: "could not create temporary directory", Err: err}
	}
	return &Sandbox{dir: dir}, nil
}

func (s *Sandbox) Dir() string { return s.dir }

// MaterializedName is the file name, relative to the sandbox, that code
// from sourceFile is written to.
func MaterializedName(sourceFile, suffix string) string {
	name := filepath.Base(sourceFile)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "mixin"
	}
	if suffix != "" && !strings.HasSuffix(name, suffix) {
		name += suffix
	}
	return name
}

// Materialize writes text into the sandbox under the base name of
// sourceFile, with suffix appended when it is not already there. The text is
// preceded by firstLine-1 blank lines so that line numbers reported by the
// foreign toolchain match the host file.
func (s *Sandbox) Materialize(sourceFile string, firstLine int, suffix, text string) (MaterializedFile, error) {
	name := MaterializedName(sourceFile, suffix)
	path := filepath.Join(s.dir, name)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return MaterializedFile{}, &SandboxError{Op: "could not create temporary directory", Path: filepath.Dir(path), Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return MaterializedFile{}, &SandboxError{Op: "could not create temporary file", Path: path, Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if firstLine > 1 {
		if _, err := w.WriteString(strings.Repeat("\n", firstLine-1)); err != nil {
			return MaterializedFile{}, &SandboxError{Op: "could not write output", Path: path, Err: err}
		}
	}
	if _, err := w.WriteString(text); err != nil {
		return MaterializedFile{}, &SandboxError{Op: "could not write output", Path: path, Err: err}
	}
	if err := w.Flush(); err != nil {
		return MaterializedFile{}, &SandboxError{Op: "could not flush output", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return MaterializedFile{}, &SandboxError{Op: "could not flush output", Path: path, Err: err}
	}
	return MaterializedFile{Name: name, Path: path}, nil
}

// Close removes the sandbox and everything in it.
func (s *Sandbox) Close() error {
	return os.RemoveAll(s.dir)
}
