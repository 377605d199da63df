// Package exthcl decodes gomixin configuration from HCL.
//
// A file holds at most one settings block and any number of extension blocks:
//
//	settings {
//	  log_level = "debug"
//	}
//
//	extension "node_mixin" {
//	  interpreter = "node"
//	  args        = ["--no-warnings"]
//	}
//
// Attribute expressions may read the process environment through the env
// object, e.g. interpreter = "${env.HOME}/bin/node".
package exthcl

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/huonw/external-mixin/cmd/gomixin/extcfg"
)

type hclFile struct {
	Settings   *hclSettings   `hcl:"settings,block"`
	Extensions []hclExtension `hcl:"extension,block"`
}

type hclSettings struct {
	LogLevel    *string `hcl:"log_level,optional"`
	LogFormat   *string `hcl:"log_format,optional"`
	SandboxRoot *string `hcl:"sandbox_root,optional"`
	Jobs        *int    `hcl:"jobs,optional"`
}

type hclExtension struct {
	Name        string   `hcl:"name,label"`
	Kind        string   `hcl:"kind,optional"`
	Description string   `hcl:"description,optional"`
	Interpreter *string  `hcl:"interpreter,optional"`
	Compiler    *string  `hcl:"compiler,optional"`
	Args        []string `hcl:"args,optional"`
	OutputFlag  *string  `hcl:"output_flag,optional"`
	Artifact    *string  `hcl:"artifact,optional"`
	SourceExt   *string  `hcl:"source_ext,optional"`
}

// Parse decodes src, naming it filename in diagnostics. The env object is
// populated from the current process environment.
func Parse(src []byte, filename string) (extcfg.Document, error) {
	return ParseWithEnv(src, filename, os.Environ())
}

// ParseWithEnv is Parse with an explicit KEY=VALUE environment list.
func ParseWithEnv(src []byte, filename string, environ []string) (extcfg.Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return extcfg.Document{}, fmt.Errorf("phase=parse path=%s: %s", filename, diags.Error())
	}

	var raw hclFile
	diags = gohcl.DecodeBody(file.Body, evalContext(environ), &raw)
	if diags.HasErrors() {
		return extcfg.Document{}, fmt.Errorf("phase=decode path=%s: %s", filename, diags.Error())
	}

	doc := extcfg.Document{Extensions: make([]extcfg.RawExtension, 0, len(raw.Extensions))}
	if s := raw.Settings; s != nil {
		doc.Settings = extcfg.Settings{
			LogLevel:    s.LogLevel,
			LogFormat:   s.LogFormat,
			SandboxRoot: s.SandboxRoot,
			Jobs:        s.Jobs,
		}
	}
	for _, e := range raw.Extensions {
		doc.Extensions = append(doc.Extensions, extcfg.RawExtension{
			Name:        e.Name,
			Kind:        e.Kind,
			Description: e.Description,
			Interpreter: e.Interpreter,
			Compiler:    e.Compiler,
			Args:        e.Args,
			OutputFlag:  e.OutputFlag,
			Artifact:    e.Artifact,
			SourceExt:   e.SourceExt,
		})
	}
	return doc, nil
}

func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}
