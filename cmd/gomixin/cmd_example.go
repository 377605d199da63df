package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

//go:embed cmd_example_extensions.yml
var exampleYAML []byte

//go:embed cmd_example_extensions.hcl
var exampleHCL []byte

const exampleYAMLHeader = "# " + appName + " extensions, YAML reference\n" +
	"# Save under ~/.config/" + appName + "/extensions/ or pass with --config.\n" +
	"# HCL version: " + appName + " example --hcl\n\n"

const exampleHCLHeader = "# " + appName + " extensions, HCL reference\n" +
	"# Save under ~/.config/" + appName + "/extensions/ or pass with --config.\n\n"

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print a reference extension configuration",
	Long: "Print an annotated configuration declaring interpreted and compiled\n" +
		"extensions. YAML by default; --hcl prints the HCL form. Use --output to\n" +
		"write to a file instead of stdout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		useHCL, _ := cmd.Flags().GetBool("hcl")
		output, _ := cmd.Flags().GetString("output")

		header, body := exampleYAMLHeader, exampleYAML
		if useHCL {
			header, body = exampleHCLHeader, exampleHCL
		}

		w := cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}

		fmt.Fprint(w, header)
		if _, err := w.Write(body); err != nil {
			return err
		}

		if output != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "written to %s\n", output)
		}
		return nil
	},
}

func init() {
	exampleCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	exampleCmd.Flags().Bool("hcl", false, "print the HCL form instead of YAML")
}
