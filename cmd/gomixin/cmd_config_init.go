package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

//go:embed cmd_config_init_extensions.yml
var initExtensionsYAML []byte

const configInitHeader = "# " + appName + " extensions\n" +
	"# Every *.yml, *.yaml and *.hcl file in this directory is loaded.\n" +
	"# Reference: " + appName + " example\n\n"

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialise the config directory with a starter extension file",
	Long: "Create <config>/extensions/extensions.yml with a single starter extension.\n\n" +
		"The default config directory is resolved as:\n" +
		"  $GOMIXIN_CONFIG_DIR > $XDG_CONFIG_HOME/gomixin > ~/.config/gomixin",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		dir, _ := cmd.Flags().GetString("dir")
		interactive, _ := cmd.Flags().GetBool("interactive")

		content := initExtensionsYAML
		if interactive {
			selected, err := pickStarters()
			if err != nil {
				return err
			}
			content = composeStarters(selected)
		}

		if dir == "" {
			var err error
			dir, err = resolveConfigDir()
			if err != nil {
				return err
			}
		}

		extDir := filepath.Join(dir, "extensions")
		if err := os.MkdirAll(extDir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", extDir, err)
		}
		file := filepath.Join(extDir, "extensions.yml")
		if err := writeInitFile(file, configInitHeader, content, force); err != nil {
			return err
		}

		stderr := cmd.ErrOrStderr()
		fmt.Fprintf(stderr, "initialised %s\n", dir)
		fmt.Fprintf(stderr, "  %s\n", file)
		fmt.Fprintf(stderr, "\nRun `%s list` to see available extensions.\n", appName)
		return nil
	},
}

// starter is an extension offered by `config init --interactive`.
type starter struct {
	Name string
	Desc string
	YAML string
}

var starters = []starter{
	{"node_mixin", "JavaScript via node", "  - name: node_mixin\n    interpreter: node\n    source_ext: .js\n"},
	{"lua_mixin", "Lua via lua", "  - name: lua_mixin\n    interpreter: lua\n    source_ext: .lua\n"},
	{"php_mixin", "PHP via php", "  - name: php_mixin\n    interpreter: php\n    source_ext: .php\n"},
	{"c_mixin", "C compiled with cc", "  - name: c_mixin\n    compiler: cc\n    args: [-O2]\n    source_ext: .c\n"},
	{"cpp_mixin", "C++ compiled with c++", "  - name: cpp_mixin\n    compiler: c++\n    args: [-std=c++17]\n    source_ext: .cpp\n"},
	{"fortran_mixin", "Fortran compiled with gfortran", "  - name: fortran_mixin\n    compiler: gfortran\n    source_ext: .f90\n"},
}

func pickStarters() ([]string, error) {
	opts := make([]huh.Option[string], 0, len(starters))
	for _, s := range starters {
		opts = append(opts, huh.NewOption(s.Name+"  "+s.Desc, s.Name))
	}
	var selected []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Starter extensions").
				Description("space to toggle, enter to confirm").
				Options(opts...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}
	return selected, nil
}

// composeStarters renders the selected starters as an extensions file.
// Unknown names are ignored.
func composeStarters(names []string) []byte {
	var b strings.Builder
	b.WriteString("extensions:\n")
	n := 0
	for _, s := range starters {
		for _, name := range names {
			if name == s.Name {
				b.WriteString(s.YAML)
				n++
			}
		}
	}
	if n == 0 {
		return []byte("extensions: []\n")
	}
	return []byte(b.String())
}

func writeInitFile(path, header string, content []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if header != "" {
		fmt.Fprint(f, header)
	}
	_, err = f.Write(content)
	return err
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite existing files")
	configInitCmd.Flags().String("dir", "", "target config directory (default: auto-resolved)")
	configInitCmd.Flags().BoolP("interactive", "i", false, "choose starter extensions from a list")
}
