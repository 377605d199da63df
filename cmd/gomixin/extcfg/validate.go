package extcfg

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/huonw/external-mixin/pkg/ctxlog"
)

// Validate checks extension declarations before they are built.
func Validate(exts []RawExtension) error {
	seen := map[string]struct{}{}
	for i, e := range exts {
		path := e.Name
		if path == "" {
			path = fmt.Sprintf("extensions[%d]", i)
		}
		if err := validateExtension(e, path); err != nil {
			return err
		}
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("phase=raw path=%s: %w", path, ErrDuplicateName)
		}
		seen[e.Name] = struct{}{}
	}
	return nil
}

func validateExtension(e RawExtension, path string) error {
	if e.Name == "" {
		return fmt.Errorf("phase=raw path=%s: extension is missing a name", path)
	}
	if !isGoIdentifier(e.Name) {
		return fmt.Errorf(
			"phase=raw path=%s: invalid name: extension names must be valid Go identifiers "+
				"(letters, digits, and underscores only); hint: rename to %q",
			path, strings.ReplaceAll(e.Name, "-", "_"),
		)
	}
	if e.SourceExt != nil && !strings.HasPrefix(*e.SourceExt, ".") {
		return fmt.Errorf("phase=raw path=%s: 'source_ext' must start with a dot, got %q", path, *e.SourceExt)
	}

	switch e.kind() {
	case KindInterpreted:
		if e.Compiler != nil || e.Artifact != nil || e.OutputFlag != nil {
			return fmt.Errorf("phase=raw path=%s: 'compiler', 'artifact' and 'output_flag' can only be used on compiled extensions", path)
		}
		if e.Interpreter != nil && strings.TrimSpace(*e.Interpreter) == "" {
			return fmt.Errorf("phase=raw path=%s: 'interpreter' must not be empty (omit it to take the interpreter from each invocation)", path)
		}
	case KindCompiled:
		if e.Interpreter != nil {
			return fmt.Errorf("phase=raw path=%s: 'interpreter' can only be used on interpreted extensions", path)
		}
		if e.Compiler == nil || strings.TrimSpace(*e.Compiler) == "" {
			return fmt.Errorf("phase=raw path=%s: compiled extension requires 'compiler'", path)
		}
		if e.Artifact != nil {
			a := *e.Artifact
			if a == "" || a != filepath.Base(a) || a == "." || a == ".." {
				return fmt.Errorf("phase=raw path=%s: 'artifact' must be a plain file name, got %q", path, a)
			}
		}
		if e.OutputFlag != nil && !strings.HasPrefix(*e.OutputFlag, "-") {
			return fmt.Errorf("phase=raw path=%s: 'output_flag' must be a flag, got %q", path, *e.OutputFlag)
		}
	default:
		return fmt.Errorf("phase=raw path=%s: %w: unknown kind %q (want %s or %s)",
			path, ErrInvalidExtension, e.Kind, KindInterpreted, KindCompiled)
	}
	return nil
}

// ValidateSettings checks the values of s that can be checked statically.
func ValidateSettings(s Settings) error {
	if s.LogLevel != nil {
		if _, err := ctxlog.ParseLevel(*s.LogLevel); err != nil {
			return fmt.Errorf("phase=settings path=log_level: %w: %v", ErrInvalidSettings, err)
		}
	}
	if s.LogFormat != nil && !ctxlog.ValidFormat(*s.LogFormat) {
		return fmt.Errorf("phase=settings path=log_format: %w: unknown format %q", ErrInvalidSettings, *s.LogFormat)
	}
	if s.Jobs != nil && *s.Jobs < 1 {
		return fmt.Errorf("phase=settings path=jobs: %w: must be at least 1, got %d", ErrInvalidSettings, *s.Jobs)
	}
	return nil
}

// isGoIdentifier reports whether s is a valid Go identifier. Invocations
// are scanned as Go tokens, so extension names must be identifiers.
func isGoIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r), r == '_':
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}
