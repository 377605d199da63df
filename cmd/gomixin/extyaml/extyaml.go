// Package extyaml decodes gomixin configuration from YAML.
package extyaml

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/huonw/external-mixin/cmd/gomixin/extcfg"
)

// Two forms are supported:
//   - Mapping form (preferred): a mapping with "settings" and "extensions" keys.
//   - Shorthand form: a bare sequence, interpreted as extensions only.
type yamlDocument struct {
	Settings   yamlSettings    `yaml:"settings,omitempty"`
	Extensions []yamlExtension `yaml:"extensions,omitempty"`
}

type yamlSettings struct {
	LogLevel    *string `yaml:"log_level,omitempty"`
	LogFormat   *string `yaml:"log_format,omitempty"`
	SandboxRoot *string `yaml:"sandbox_root,omitempty"`
	Jobs        *int    `yaml:"jobs,omitempty"`
}

type yamlExtension struct {
	Name        string    `yaml:"name"`
	Kind        string    `yaml:"kind,omitempty"`
	Description string    `yaml:"description,omitempty"`
	Interpreter *string   `yaml:"interpreter,omitempty"`
	Compiler    *string   `yaml:"compiler,omitempty"`
	Args        yaml.Node `yaml:"args,omitempty"`
	OutputFlag  *string   `yaml:"output_flag,omitempty"`
	Artifact    *string   `yaml:"artifact,omitempty"`
	SourceExt   *string   `yaml:"source_ext,omitempty"`
}

// Parse decodes a YAML document in mapping or shorthand form.
func Parse(in []byte) (extcfg.Document, error) {
	var docNode yaml.Node
	if err := yaml.Unmarshal(in, &docNode); err != nil {
		return extcfg.Document{}, fmt.Errorf("phase=parse path=<doc>: %w", err)
	}
	if len(docNode.Content) == 0 {
		return extcfg.Document{}, fmt.Errorf("phase=parse path=<doc>: empty YAML")
	}
	root := docNode.Content[0]

	switch root.Kind {
	case yaml.SequenceNode:
		var exts []yamlExtension
		if err := root.Decode(&exts); err != nil {
			return extcfg.Document{}, fmt.Errorf("phase=parse path=<doc>: %w", err)
		}
		converted, err := convertExtensions(exts)
		if err != nil {
			return extcfg.Document{}, err
		}
		return extcfg.Document{Extensions: converted}, nil

	case yaml.MappingNode:
		var yd yamlDocument
		if err := root.Decode(&yd); err != nil {
			return extcfg.Document{}, fmt.Errorf("phase=parse path=<doc>: %w", err)
		}
		converted, err := convertExtensions(yd.Extensions)
		if err != nil {
			return extcfg.Document{}, err
		}
		return extcfg.Document{
			Settings: extcfg.Settings{
				LogLevel:    yd.Settings.LogLevel,
				LogFormat:   yd.Settings.LogFormat,
				SandboxRoot: yd.Settings.SandboxRoot,
				Jobs:        yd.Settings.Jobs,
			},
			Extensions: converted,
		}, nil

	default:
		return extcfg.Document{}, fmt.Errorf("phase=parse path=<doc>: unexpected YAML root kind: %d", root.Kind)
	}
}

func convertExtensions(in []yamlExtension) ([]extcfg.RawExtension, error) {
	out := make([]extcfg.RawExtension, 0, len(in))
	for i, y := range in {
		args, err := convertArgs(y.Args)
		if err != nil {
			path := y.Name
			if path == "" {
				path = fmt.Sprintf("extensions[%d]", i)
			}
			return nil, fmt.Errorf("phase=parse path=%s.args: %w", path, err)
		}
		out = append(out, extcfg.RawExtension{
			Name:        y.Name,
			Kind:        y.Kind,
			Description: y.Description,
			Interpreter: y.Interpreter,
			Compiler:    y.Compiler,
			Args:        args,
			OutputFlag:  y.OutputFlag,
			Artifact:    y.Artifact,
			SourceExt:   y.SourceExt,
		})
	}
	return out, nil
}

// convertArgs accepts a sequence of scalars or a single scalar.
func convertArgs(n yaml.Node) ([]string, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: args must be scalars", c.Line)
			}
			out = append(out, c.Value)
		}
		return out, nil
	}
	return nil, fmt.Errorf("line %d: args must be a string or a list of strings", n.Line)
}
