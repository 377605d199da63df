// Package extcfg is the format-agnostic model of gomixin configuration.
// Decoders (YAML, HCL) fill a Document; Definitions turns its extensions
// into engine definitions.
package extcfg

const (
	KindInterpreted = "interpreted"
	KindCompiled    = "compiled"
)

// RawExtension is an extension as declared in a configuration file.
//
// An interpreted extension runs its code with Interpreter; when Interpreter
// is nil the interpreter is taken from the `interpreter` option of each
// invocation. A compiled extension runs Compiler to produce Artifact and then
// runs the artifact.
type RawExtension struct {
	Name        string
	Kind        string // inferred from Compiler when empty
	Description string
	Interpreter *string
	Compiler    *string
	Args        []string
	OutputFlag  *string
	Artifact    *string
	SourceExt   *string
}

// Settings are process-wide defaults that flags can override.
type Settings struct {
	LogLevel    *string
	LogFormat   *string
	SandboxRoot *string
	Jobs        *int
}

// Merge returns s with every field set in o overriding it.
func (s Settings) Merge(o Settings) Settings {
	if o.LogLevel != nil {
		s.LogLevel = o.LogLevel
	}
	if o.LogFormat != nil {
		s.LogFormat = o.LogFormat
	}
	if o.SandboxRoot != nil {
		s.SandboxRoot = o.SandboxRoot
	}
	if o.Jobs != nil {
		s.Jobs = o.Jobs
	}
	return s
}

// Document is the content of one configuration file.
type Document struct {
	Settings   Settings
	Extensions []RawExtension
}

// Merge combines documents in order: later settings win and extensions are
// concatenated.
func Merge(docs ...Document) Document {
	var out Document
	for _, d := range docs {
		out.Settings = out.Settings.Merge(d.Settings)
		out.Extensions = append(out.Extensions, d.Extensions...)
	}
	return out
}

// kind resolves the effective kind of e.
func (e RawExtension) kind() string {
	if e.Kind != "" {
		return e.Kind
	}
	if e.Compiler != nil {
		return KindCompiled
	}
	return KindInterpreted
}
