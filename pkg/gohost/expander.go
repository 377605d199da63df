// Package gohost expands mixin invocations in Go template files.
//
// A template is ordinary Go source, conventionally named *.go.in, in which
// a registered extension can be invoked as
//
//	name! "source"
//	name! { key = "value", ... } `source`
//	name!stmt "source"
//
// The shape expected at the call site is inferred from the surrounding
// syntax; an explicit shape after the `!` overrides it.
package gohost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/format"
	"go/scanner"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/huonw/external-mixin/pkg/ctxlog"
	"github.com/huonw/external-mixin/pkg/mixin"
)

// TemplateSuffix marks files the expander reads.
const TemplateSuffix = ".go.in"

// Site is one invocation found in a template.
type Site struct {
	Extension  string
	Shape      mixin.Shape
	Explicit   bool
	Members    MemberKind
	Invocation mixin.Invocation
	// Invalid is set when the invocation could not be delimited; it has
	// already been reported.
	Invalid bool
	// Start and End delimit the invocation in the template source.
	Start, End int
}

// Expander rewrites templates by running the mixins they invoke.
type Expander struct {
	registry *mixin.Registry
	reporter mixin.Reporter
}

func NewExpander(reg *mixin.Registry, r mixin.Reporter) *Expander {
	return &Expander{registry: reg, reporter: r}
}

// Sites lists the invocations in src without running anything.
func (x *Expander) Sites(filename string, src []byte) ([]Site, error) {
	fset := token.NewFileSet()
	toks, file, err := scanSource(fset, filename, src)
	if err != nil {
		var list scanner.ErrorList
		if errors.As(err, &list) {
			for _, e := range list {
				x.report(mixin.Diagnostic{
					Severity: mixin.SeverityError,
					Span:     mixin.Span{Filename: filename, Line: e.Pos.Line, Column: e.Pos.Column, Offset: e.Pos.Offset},
					Message:  e.Msg,
				})
			}
		}
		return nil, fmt.Errorf("scan %s: %w", filename, err)
	}

	var sites []Site
	tracker := newShapeTracker()
	for i := 0; i < len(toks) && toks[i].tok != token.EOF; i++ {
		site, next, ok := x.siteAt(toks, i, file, filename, src)
		if !ok {
			tracker.feed(toks[i])
			continue
		}
		if !site.Explicit {
			site.Shape = tracker.shape()
		}
		site.Members = tracker.members()
		sites = append(sites, site)
		// The invocation stands in for a single operand.
		tracker.feed(rawTok{tok: token.IDENT})
		i = next - 1
	}
	return sites, nil
}

var explicitShapes = map[string]mixin.Shape{
	"expr":    mixin.ShapeExpression,
	"pat":     mixin.ShapePattern,
	"stmt":    mixin.ShapeStatement,
	"items":   mixin.ShapeItems,
	"members": mixin.ShapeMembers,
}

// siteAt recognizes `name!` at toks[i] and returns the site and the index
// of the first token after it.
func (x *Expander) siteAt(toks []rawTok, i int, file *token.File, filename string, src []byte) (Site, int, bool) {
	t := toks[i]
	if t.tok != token.IDENT || i+1 >= len(toks) {
		return Site{}, 0, false
	}
	bang := toks[i+1]
	if bang.tok != token.NOT || bang.pos != t.end {
		return Site{}, 0, false
	}
	if _, ok := x.registry.Lookup(t.lit); !ok {
		return Site{}, 0, false
	}

	site := Site{Extension: t.lit, Start: t.pos, End: bang.end}
	j := i + 2

	if j < len(toks) && toks[j].tok == token.IDENT && toks[j].pos == bang.end {
		if shape, ok := explicitShapes[toks[j].lit]; ok {
			site.Shape, site.Explicit = shape, true
			site.End = toks[j].end
			j++
		}
	}

	if j < len(toks) && toks[j].tok == token.LBRACE {
		site.Invocation.HasHeader = true
		depth := 0
		k := j
		for ; k < len(toks) && toks[k].tok != token.EOF; k++ {
			switch toks[k].tok {
			case token.LBRACE:
				depth++
			case token.RBRACE:
				depth--
			}
			if depth == 0 {
				break
			}
			if k > j && !toks[k].auto {
				site.Invocation.Header = append(site.Invocation.Header, convert(toks[k], file, filename, src))
			}
		}
		if k >= len(toks) || toks[k].tok != token.RBRACE {
			x.report(mixin.Diagnostic{
				Severity: mixin.SeverityError,
				Span:     spanOf(file, filename, toks[j].pos, toks[j].end),
				Message:  fmt.Sprintf("`%s!`: unclosed option header", t.lit),
			})
			site.Invalid = true
			site.End = toks[len(toks)-1].pos
			site.Invocation.Span = spanOf(file, filename, site.Start, site.End)
			return site, len(toks) - 1, true
		}
		site.End = toks[k].end
		j = k + 1
	}

	if j < len(toks) && toks[j].tok == token.STRING {
		site.Invocation.Body = []mixin.Token{convert(toks[j], file, filename, src)}
		site.End = toks[j].end
		j++
	}
	site.Invocation.Span = spanOf(file, filename, site.Start, site.End)
	return site, j, true
}

// ExpandSource expands every invocation in src and returns gofmt-ed
// output. Expansion continues past failed invocations so that all of their
// diagnostics are reported; the output is discarded if any failed.
func (x *Expander) ExpandSource(ctx context.Context, filename string, src []byte) ([]byte, error) {
	sites, err := x.Sites(filename, src)
	if err != nil {
		return nil, err
	}
	log := ctxlog.FromContext(ctx).With("file", filename)
	log.Debug("found mixin invocations", "count", len(sites))

	var out bytes.Buffer
	last, failed := 0, 0
	for _, s := range sites {
		out.Write(src[last:s.Start])
		text, err := x.expandSite(ctx, s)
		if err != nil {
			log.Debug("invocation failed", "extension", s.Extension, "line", s.Invocation.Span.Line, "error", err)
			failed++
		}
		out.WriteString(text)
		last = s.End
	}
	out.Write(src[last:])

	if failed > 0 {
		return nil, fmt.Errorf("%w: %d of %d invocations in %s", mixin.ErrExpansionFailed, failed, len(sites), filename)
	}

	formatted, err := format.Source(out.Bytes())
	if err != nil {
		x.report(mixin.Diagnostic{
			Severity: mixin.SeverityError,
			Span:     mixin.Span{Filename: filename},
			Message:  fmt.Sprintf("expanded source is not valid Go: %v", err),
		})
		return nil, fmt.Errorf("format %s: %w", filename, err)
	}
	return formatted, nil
}

func (x *Expander) expandSite(ctx context.Context, s Site) (string, error) {
	if s.Invalid {
		return "", mixin.ErrInvalidInvocation
	}
	ext, ok := x.registry.Lookup(s.Extension)
	if !ok {
		return "", fmt.Errorf("extension %s is not registered", s.Extension)
	}
	// Unknown options are reported without stopping the expansion, but
	// still fail the site.
	rc := &mixin.ErrorCounter{R: x.reporter}
	d, err := ext.Expand(ctx, s.Invocation, rc, NewParserFunc(s.Members))
	if err != nil {
		return "", err
	}
	frag, err := d.Materialize(s.Shape, rc)
	if err != nil {
		return "", err
	}
	if err := rc.Err(); err != nil {
		return "", err
	}
	return Render(frag), nil
}

func (x *Expander) report(d mixin.Diagnostic) {
	if x.reporter != nil {
		x.reporter.Report(d)
	}
}

// OutputPath maps a template path to the file it expands into.
func OutputPath(path string) string {
	if strings.HasSuffix(path, TemplateSuffix) {
		return strings.TrimSuffix(path, ".in")
	}
	return path + ".go"
}

// GeneratedHeader is written at the top of every expanded file.
func GeneratedHeader(template string) string {
	return fmt.Sprintf("// Code generated by gomixin from %s. DO NOT EDIT.\n\n", template)
}

// ExpandFile expands the template at path and writes the result next to
// it. It returns the path written.
func (x *Expander) ExpandFile(ctx context.Context, path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	out, err := x.ExpandSource(ctx, path, src)
	if err != nil {
		return "", err
	}
	dst := OutputPath(path)
	data := append([]byte(GeneratedHeader(filepath.Base(path))), out...)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

// ExpandFiles expands templates with at most jobs files in flight. Every
// file is attempted; the returned error joins the failures.
func (x *Expander) ExpandFiles(ctx context.Context, paths []string, jobs int) ([]string, error) {
	if jobs < 1 {
		jobs = 1
	}
	var (
		mu      sync.Mutex
		written = make([]string, len(paths))
		errs    []error
	)
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			dst, err := x.ExpandFile(ctx, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				return nil
			}
			written[i] = dst
			return nil
		})
	}
	_ = g.Wait()

	out := written[:0]
	for _, w := range written {
		if w != "" {
			out = append(out, w)
		}
	}
	return out, errors.Join(errs...)
}
