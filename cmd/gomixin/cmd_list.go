package main

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/huonw/external-mixin/cmd/gomixin/extcfg"
	"github.com/huonw/external-mixin/pkg/mixin"
)

var flagListNoTUI bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available extensions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(flagConfigs, flagNoBuiltins)
		if err != nil {
			return err
		}
		if flagListNoTUI {
			printDefinitions(cmd.OutOrStdout(), cfg.Definitions)
			return nil
		}
		p := tea.NewProgram(newListModel(cfg.Definitions), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

// strategyKind names the execution strategy of def.
func strategyKind(def mixin.Definition) string {
	switch def.Strategy.(type) {
	case mixin.Compiler:
		return extcfg.KindCompiled
	case mixin.Interpreter:
		return extcfg.KindInterpreted
	}
	return fmt.Sprintf("%T", def.Strategy)
}

// printDefinitions prints one aligned line per definition.
func printDefinitions(w io.Writer, defs []mixin.Definition) {
	fmt.Fprintf(w, "%-18s %-12s %s\n", "NAME", "KIND", "COMMAND")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, d := range defs {
		fmt.Fprintf(w, "%-18s %-12s %s\n", d.Name, strategyKind(d), d.Strategy.Describe())
	}
}

// describeDefinition is the multi-line detail view of def.
func describeDefinition(def mixin.Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s!\n\n", def.Name)
	if def.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", def.Description)
	}
	fmt.Fprintf(&b, "kind:    %s\n", strategyKind(def))
	fmt.Fprintf(&b, "command: %s\n", def.Strategy.Describe())
	if def.SourceExt != "" {
		fmt.Fprintf(&b, "source:  *%s\n", def.SourceExt)
	}
	if i, ok := def.Strategy.(mixin.Interpreter); ok && i.Binary == "" {
		b.WriteString("\nThe interpreter is chosen per invocation:\n")
		fmt.Fprintf(&b, "  %s! { interpreter = \"python3\" } `print(1)`\n", def.Name)
	}
	return b.String()
}

func init() {
	listCmd.Flags().BoolVar(&flagListNoTUI, "no-tui", false, "plain text output without the interactive table")
}
