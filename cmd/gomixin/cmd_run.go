package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/huonw/external-mixin/pkg/gohost"
	"github.com/huonw/external-mixin/pkg/mixin"
)

var (
	flagRunShape     string
	flagRunOpts      []string
	flagRunFile      string
	flagRunLine      int
	flagRunPick      bool
	flagRunInterface bool
)

var runCmd = &cobra.Command{
	Use:   "run [extension] [source|-]",
	Short: "Expand a single snippet and print the Go it produces",
	Long: "Run one extension on a snippet of foreign code and print the resulting Go\n" +
		"fragment. The source is read from stdin when omitted or given as -.\n\n" +
		"Examples:\n" +
		"  " + appName + " run python_mixin 'print(\"1 + 2\")'\n" +
		"  " + appName + " run external_mixin --opt interpreter=ruby - < gen.rb\n" +
		"  " + appName + " run --pick --shape items < decls.py",
	Args: cobra.MaximumNArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveDefault
		}
		cfg, err := loadConfig(flagConfigs, flagNoBuiltins)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		var names []string
		for _, d := range cfg.Definitions {
			if strings.HasPrefix(d.Name, toComplete) {
				names = append(names, d.Name)
			}
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		shape, err := mixin.ParseShape(flagRunShape)
		if err != nil {
			return err
		}
		header, err := headerTokens(flagRunOpts, mixin.Span{Filename: flagRunFile, Line: flagRunLine, Column: 1})
		if err != nil {
			return err
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		var name string
		switch {
		case flagRunPick:
			if name, err = pickExtension(s.config.Definitions); err != nil {
				return err
			}
		case len(args) > 0:
			name, args = args[0], args[1:]
		default:
			return errors.New("missing extension name (or use --pick)")
		}
		ext, ok := s.registry.Lookup(name)
		if !ok {
			return unknownExtensionError(name, s.registry.Names())
		}

		var src string
		if len(args) == 0 || args[0] == "-" {
			if src, err = readSnippet(cmd.InOrStdin()); err != nil {
				return err
			}
		} else {
			src = args[0]
		}

		inv := snippetInvocation(src, header, flagRunFile, flagRunLine)
		members := gohost.StructMembers
		if flagRunInterface {
			members = gohost.InterfaceMembers
		}

		out, err := expandSnippet(s.ctx, ext, inv, shape, members, s.printer)
		if err != nil {
			return runResult(s, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

// expandSnippet expands inv and renders it as shape. Any error reported on
// r fails the snippet, including those that let the expansion finish.
func expandSnippet(ctx context.Context, ext *mixin.Extension, inv mixin.Invocation, shape mixin.Shape, members gohost.MemberKind, r mixin.Reporter) (string, error) {
	rc := &mixin.ErrorCounter{R: r}
	d, err := ext.Expand(ctx, inv, rc, gohost.NewParserFunc(members))
	if err != nil {
		return "", err
	}
	frag, err := d.Materialize(shape, rc)
	if err != nil {
		return "", err
	}
	if err := rc.Err(); err != nil {
		return "", err
	}
	return gohost.Render(frag), nil
}

func runResult(s *session, err error) error {
	if sum := s.printer.summary(); sum != nil {
		return sum
	}
	return err
}

// snippetInvocation builds the invocation `name! {header} "src"` as if it
// were written at file:line.
func snippetInvocation(src string, header []mixin.Token, file string, line int) mixin.Invocation {
	span := mixin.Span{Filename: file, Line: line, Column: 1}
	return mixin.Invocation{
		Span:      span,
		Header:    header,
		HasHeader: len(header) > 0,
		Body: []mixin.Token{{
			Kind:  mixin.String,
			Text:  strconv.Quote(src),
			Value: src,
			Span:  span,
		}},
	}
}

// headerTokens turns key=value pairs into the tokens of an option header.
func headerTokens(pairs []string, span mixin.Span) ([]mixin.Token, error) {
	var toks []mixin.Token
	for i, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--opt %q: expected key=value", kv)
		}
		if i > 0 {
			toks = append(toks, mixin.Token{Kind: mixin.Comma, Text: ",", Span: span})
		}
		toks = append(toks,
			mixin.Token{Kind: mixin.Ident, Text: key, Span: span},
			mixin.Token{Kind: mixin.Assign, Text: "=", Span: span},
			mixin.Token{Kind: mixin.String, Text: strconv.Quote(value), Value: value, Span: span},
		)
	}
	return toks, nil
}

// unknownExtensionError lists close matches for name, or every extension
// when nothing is close.
func unknownExtensionError(name string, names []string) error {
	ranks := fuzzy.RankFindFold(name, names)
	sort.Sort(ranks)
	if len(ranks) > 0 {
		matches := make([]string, 0, len(ranks))
		for _, r := range ranks {
			matches = append(matches, r.Target)
		}
		return fmt.Errorf("unknown extension %q\ndid you mean: %s", name, strings.Join(matches, ", "))
	}
	return fmt.Errorf("unknown extension %q\navailable: %s", name, strings.Join(names, ", "))
}

// readSnippet reads the snippet from in. On a terminal the snippet is
// typed line by line and ends with ctrl-D.
func readSnippet(in io.Reader) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !readline.IsTerminal(int(f.Fd())) {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return "", err
	}
	defer rl.Close()
	fmt.Fprintln(rl.Stderr(), "enter the snippet, ctrl-D to run")

	var b strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			return "", errors.New("interrupted")
		}
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteByte('\n')
		rl.SetPrompt(". ")
	}
}

// pickExtension lets the user choose an extension interactively.
func pickExtension(defs []mixin.Definition) (string, error) {
	idx, err := fuzzyfinder.Find(
		defs,
		func(i int) string {
			return defs[i].Name
		},
		fuzzyfinder.WithPromptString("Select extension: "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i < 0 {
				return ""
			}
			return describeDefinition(defs[i])
		}),
	)
	if err != nil {
		return "", err
	}
	return defs[idx].Name, nil
}

func init() {
	runCmd.Flags().StringVar(&flagRunShape, "shape", "expr", "shape to parse the output as: expr, pat, stmt, items, members")
	runCmd.Flags().StringArrayVar(&flagRunOpts, "opt", nil, "option as key=value, as in the invocation header (repeatable)")
	runCmd.Flags().StringVar(&flagRunFile, "file", "snippet", "file name the snippet is attributed to")
	runCmd.Flags().IntVar(&flagRunLine, "line", 1, "line the snippet starts on")
	runCmd.Flags().BoolVar(&flagRunPick, "pick", false, "choose the extension with a fuzzy finder")
	runCmd.Flags().BoolVar(&flagRunInterface, "interface", false, "parse members as interface methods instead of struct fields")
}
