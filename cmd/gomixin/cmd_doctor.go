package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/lipgloss"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/spf13/cobra"

	"github.com/huonw/external-mixin/pkg/lib"
	"github.com/huonw/external-mixin/pkg/mixin"
)

// exitDoctorProblems distinguishes a missing toolchain from a failed run.
const exitDoctorProblems = 2

var (
	styleOK = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	styleErr = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	styleSkip = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that extension toolchains are installed",
	Long: "Report the host platform, whether the sandbox root is writable and\n" +
		"whether the binary of every extension resolves on PATH.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(flagConfigs, flagNoBuiltins)
		if err != nil {
			return err
		}
		_, _, root := effectiveSettings(cmd, cfg)
		w := cmd.OutOrStdout()

		if info, err := host.InfoWithContext(cmd.Context()); err == nil {
			fmt.Fprintf(w, "host:    %s %s %s (%s, kernel %s)\n",
				info.OS, info.Platform, info.PlatformVersion, info.KernelArch, info.KernelVersion)
		} else {
			fmt.Fprintf(w, "host:    %s\n", styleSkip.Render("unknown: "+err.Error()))
		}

		missing := 0
		if err := checkSandboxRoot(root); err != nil {
			fmt.Fprintf(w, "sandbox: %s %v\n", styleErr.Render("✗"), err)
			missing++
		} else {
			fmt.Fprintf(w, "sandbox: %s %s\n", styleOK.Render("✓"), displayRoot(root))
		}
		fmt.Fprintln(w)

		missing += checkBinaries(w, cfg.Definitions, exec.LookPath)
		if missing > 0 {
			return lib.WithCode(exitDoctorProblems, fmt.Errorf("%d problem(s) found", missing))
		}
		return nil
	},
}

// toolBinary returns the executable def depends on, or "" when it is chosen
// per invocation.
func toolBinary(def mixin.Definition) string {
	switch s := def.Strategy.(type) {
	case mixin.Interpreter:
		return s.Binary
	case mixin.Compiler:
		return s.Binary
	}
	return ""
}

// checkBinaries prints one line per definition and returns how many
// binaries could not be found.
func checkBinaries(w io.Writer, defs []mixin.Definition, lookPath func(string) (string, error)) int {
	missing := 0
	for _, def := range defs {
		bin := toolBinary(def)
		if bin == "" {
			fmt.Fprintf(w, "%s %-18s %s\n", styleSkip.Render("-"), def.Name, styleSkip.Render("interpreter chosen per invocation"))
			continue
		}
		path, err := lookPath(bin)
		if err != nil {
			missing++
			fmt.Fprintf(w, "%s %-18s %s not found\n", styleErr.Render("✗"), def.Name, bin)
			continue
		}
		fmt.Fprintf(w, "%s %-18s %s\n", styleOK.Render("✓"), def.Name, path)
	}
	return missing
}

// checkSandboxRoot verifies that sandboxes can be created under root.
func checkSandboxRoot(root string) error {
	if root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return err
		}
	}
	dir, err := os.MkdirTemp(root, appName+"_doctor_")
	if err != nil {
		return err
	}
	if err := os.Remove(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func displayRoot(root string) string {
	if root == "" {
		return os.TempDir()
	}
	return root
}
