package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huonw/external-mixin/pkg/gohost"
)

var (
	flagExpandStdout bool
	flagExpandDryRun bool
	flagExpandJobs   int
)

var expandCmd = &cobra.Command{
	Use:   "expand [path ...]",
	Short: "Expand *.go.in templates into Go source",
	Long: "Expand every mixin invocation in the given templates and write the result\n" +
		"next to each template, with the .in suffix removed (gen.go.in → gen.go).\n" +
		"Directories are searched recursively for *.go.in files; hidden directories,\n" +
		"vendor/ and testdata/ are skipped. With no arguments the current directory\n" +
		"is used.\n\n" +
		"A template with any failed invocation is not written; all diagnostics are\n" +
		"printed before " + appName + " exits with an error.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"."}
		}
		templates, err := collectTemplates(args)
		if err != nil {
			return err
		}
		if len(templates) == 0 {
			return fmt.Errorf("no %s templates found in %s", gohost.TemplateSuffix, strings.Join(args, ", "))
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		x := gohost.NewExpander(s.registry, s.printer)
		out := cmd.OutOrStdout()

		switch {
		case flagExpandDryRun:
			for _, path := range templates {
				src, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				sites, err := x.Sites(path, src)
				if err != nil {
					return err
				}
				dryRunSites(out, s.registry, s.printer, path, sites)
			}
			return s.printer.summary()

		case flagExpandStdout:
			var errs []error
			for _, path := range templates {
				src, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				expanded, err := x.ExpandSource(s.ctx, path, src)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprint(out, gohost.GeneratedHeader(filepath.Base(path)))
				out.Write(expanded)
			}
			return expandResult(s, errors.Join(errs...))

		default:
			written, err := x.ExpandFiles(s.ctx, templates, s.jobs(flagExpandJobs))
			for _, w := range written {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", w)
			}
			return expandResult(s, err)
		}
	},
}

// expandResult prefers the diagnostic count over the raw error chain, which
// only repeats what has been printed.
func expandResult(s *session, err error) error {
	if err == nil {
		return nil
	}
	s.log.Debug("expansion failed", "error", err)
	if sum := s.printer.summary(); sum != nil {
		return sum
	}
	return err
}

// collectTemplates expands directories in paths into the templates they
// contain. Files named explicitly are kept even without the suffix.
func collectTemplates(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(d.Name(), gohost.TemplateSuffix) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata"
}

func init() {
	expandCmd.Flags().BoolVar(&flagExpandStdout, "stdout", false, "print expanded sources instead of writing files")
	expandCmd.Flags().BoolVar(&flagExpandDryRun, "dry-run", false, "list invocations and the commands they would run, without running anything")
	expandCmd.Flags().IntVarP(&flagExpandJobs, "jobs", "j", 0, "templates to expand concurrently (default: settings.jobs or one per CPU)")
}
