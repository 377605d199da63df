package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	flagConfigs     []string
	flagLogLevel    string
	flagLogFormat   string
	flagSandboxRoot string
	flagNoBuiltins  bool
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Run foreign code at build time and splice its output into Go source",
	Long: appName + " expands mixin invocations in Go templates (*.go.in).\n\n" +
		"An invocation such as\n\n" +
		"  x := python_mixin! `print(\"1 + 2\")`\n\n" +
		"runs the embedded program and replaces the invocation with whatever it\n" +
		"prints, parsed as Go. Extensions are builtin or declared in YAML/HCL files\n" +
		"under the config directory.",
}

// globalFlags are shared by every subcommand.
func globalFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("global", pflag.ContinueOnError)
	fs.StringArrayVarP(&flagConfigs, "config", "c", nil,
		"extension config file, YAML or HCL (repeatable; default: ~/.config/"+appName+"/extensions/*)")
	fs.StringVar(&flagLogLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.StringVar(&flagLogFormat, "log-format", "text", "log format: text or json")
	fs.StringVar(&flagSandboxRoot, "sandbox-root", "", "directory for extension sandboxes (default: system temp dir)")
	fs.BoolVar(&flagNoBuiltins, "no-builtins", false, "register only configured extensions")
	return fs
}

func init() {
	rootCmd.PersistentFlags().AddFlagSet(globalFlags())
}
