package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/huonw/external-mixin/pkg/gohost"
	"github.com/huonw/external-mixin/pkg/mixin"
)

// dryRunSites prints each invocation in a template and the commands it
// would run. Header errors are reported on r.
func dryRunSites(w io.Writer, reg *mixin.Registry, r mixin.Reporter, path string, sites []gohost.Site) {
	if len(sites) == 0 {
		fmt.Fprintf(w, "[dry-run] %s: no invocations\n", path)
		return
	}
	for _, site := range sites {
		shape := site.Shape.String()
		if site.Explicit {
			shape += " (explicit)"
		}
		fmt.Fprintf(w, "[dry-run] %s %s!\n", site.Invocation.Span, site.Extension)
		fmt.Fprintf(w, "  shape:   %s\n", shape)
		if site.Invalid {
			fmt.Fprintln(w, "  invalid: see diagnostics")
			continue
		}
		ext, ok := reg.Lookup(site.Extension)
		if !ok {
			continue
		}
		for _, line := range planLines(ext, site.Invocation, r) {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

// planLines describes what expanding inv would execute.
func planLines(ext *mixin.Extension, inv mixin.Invocation, r mixin.Reporter) []string {
	opts := mixin.NewOptions()
	if inv.HasHeader {
		parsed, err := mixin.ParseOptions(inv.Header, r)
		if err != nil {
			return []string{"error:   invalid options"}
		}
		opts = parsed
	}
	def := ext.Definition()
	file := filepath.Join(ext.SandboxDir(), mixin.MaterializedName(inv.Span.Filename, def.SourceExt))
	cmds, err := def.Strategy.Plan(opts, file)
	if err != nil {
		return []string{"error:   " + err.Error()}
	}

	var lines []string
	if opts.Len() > 0 {
		var kv []string
		for _, key := range opts.Keys() {
			for _, v := range opts.Values(key) {
				kv = append(kv, fmt.Sprintf("%s=%q", key, v))
			}
		}
		lines = append(lines, "options: "+strings.Join(kv, " "))
	}
	for _, c := range cmds {
		lines = append(lines, "command: "+strings.Join(append([]string{c.Binary}, c.Argv()...), " "))
	}
	lines = append(lines, "cwd:     "+ext.SandboxDir())
	return lines
}
