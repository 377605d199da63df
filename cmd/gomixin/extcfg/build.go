package extcfg

import (
	"slices"

	"github.com/huonw/external-mixin/pkg/mixin"
)

// Definitions validates exts and converts them to engine definitions.
func Definitions(exts []RawExtension) ([]mixin.Definition, error) {
	if err := Validate(exts); err != nil {
		return nil, err
	}
	out := make([]mixin.Definition, 0, len(exts))
	for _, e := range exts {
		out = append(out, definition(e))
	}
	return out, nil
}

func definition(e RawExtension) mixin.Definition {
	def := mixin.Definition{
		Name:        e.Name,
		Description: e.Description,
		SourceExt:   deref(e.SourceExt),
	}
	switch e.kind() {
	case KindCompiled:
		artifact := e.Name + "_output_binary"
		if e.Artifact != nil {
			artifact = *e.Artifact
		}
		def.Strategy = mixin.Compiler{
			Binary:     *e.Compiler,
			Args:       slices.Clone(e.Args),
			OutputFlag: deref(e.OutputFlag),
			Artifact:   artifact,
		}
	default:
		def.Strategy = mixin.Interpreter{
			Binary: deref(e.Interpreter),
			Args:   slices.Clone(e.Args),
		}
	}
	return def
}

// WithBuiltins returns builtins followed by configured definitions. A
// configured definition replaces the builtin of the same name in place.
func WithBuiltins(builtins, configured []mixin.Definition) []mixin.Definition {
	out := slices.Clone(builtins)
	for _, def := range configured {
		i := slices.IndexFunc(out, func(d mixin.Definition) bool { return d.Name == def.Name })
		if i >= 0 {
			out[i] = def
			continue
		}
		out = append(out, def)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
