package mixin

const (
	rustArtifact = "rust_mixin_output_binary"
	goArtifact   = "go_mixin_output_binary"
)

// Builtins returns the extensions available without configuration.
func Builtins() []Definition {
	return []Definition{
		{
			Name:        "external_mixin",
			Description: "run the code with the interpreter named by the `interpreter` option",
			Strategy:    Interpreter{},
		},
		{Name: "python_mixin", Description: "run the code with python3", Strategy: Interpreter{Binary: "python3"}},
		{Name: "ruby_mixin", Description: "run the code with ruby", Strategy: Interpreter{Binary: "ruby"}},
		{Name: "sh_mixin", Description: "run the code with sh", Strategy: Interpreter{Binary: "sh"}},
		{Name: "perl_mixin", Description: "run the code with perl", Strategy: Interpreter{Binary: "perl"}},
		{
			Name:        "rust_mixin",
			Description: "compile the code with rustc and run the result",
			Strategy: Compiler{
				Binary:   "rustc",
				Args:     []string{"--crate-name", rustArtifact},
				Artifact: rustArtifact,
			},
		},
		{
			Name:        "go_mixin",
			Description: "build the code as a Go main package and run the result",
			Strategy: Compiler{
				Binary:   "go",
				Args:     []string{"build"},
				Artifact: goArtifact,
			},
			SourceExt: ".go",
		},
	}
}
