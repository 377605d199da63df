package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huonw/external-mixin/cmd/gomixin/extcfg"
	"github.com/huonw/external-mixin/cmd/gomixin/exthcl"
	"github.com/huonw/external-mixin/cmd/gomixin/extyaml"
	"github.com/huonw/external-mixin/pkg/mixin"
)

// appName is the single source of truth for the application name.
const appName = "gomixin"

var (
	envConfigDir  = strings.ToUpper(appName) + "_CONFIG_DIR"
	envExtensions = strings.ToUpper(appName) + "_EXTENSIONS"
)

// resolveConfigDir returns the base config directory for the application.
// Priority: $GOMIXIN_CONFIG_DIR > $XDG_CONFIG_HOME/gomixin > ~/.config/gomixin
func resolveConfigDir() (string, error) {
	if v := os.Getenv(envConfigDir); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// resolveExtensionFiles returns all config files to load.
// Order: configDir/extensions/* → $GOMIXIN_EXTENSIONS → flagFiles
func resolveExtensionFiles(configDir string, flagFiles []string) ([]string, error) {
	files, err := globConfig(filepath.Join(configDir, "extensions"))
	if err != nil {
		return nil, err
	}
	files = append(files, splitColon(os.Getenv(envExtensions))...)
	files = append(files, flagFiles...)
	return files, nil
}

var configExts = []string{".yml", ".yaml", ".hcl"}

// globConfig returns *.yml, *.yaml and *.hcl files in dir, in directory order.
// Returns nil without error if dir does not exist.
func globConfig(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, ext := range configExts {
			if strings.HasSuffix(e.Name(), ext) {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	return files, nil
}

// splitColon splits a colon-separated string, filtering empty parts.
func splitColon(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ":")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseConfig decodes one file, picking the decoder from its extension.
func parseConfig(path string, data []byte) (extcfg.Document, error) {
	switch filepath.Ext(path) {
	case ".hcl":
		return exthcl.Parse(data, path)
	case ".yml", ".yaml":
		return extyaml.Parse(data)
	}
	return extcfg.Document{}, fmt.Errorf("unsupported config format %q (want .yml, .yaml or .hcl)", filepath.Ext(path))
}

// loadDocuments reads and merges files in order.
func loadDocuments(files []string) (extcfg.Document, error) {
	docs := make([]extcfg.Document, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return extcfg.Document{}, fmt.Errorf("reading %s: %w", f, err)
		}
		doc, err := parseConfig(f, data)
		if err != nil {
			return extcfg.Document{}, fmt.Errorf("%s: %w", f, err)
		}
		docs = append(docs, doc)
	}
	return extcfg.Merge(docs...), nil
}

// loadedConfig is the configuration after merging every source.
type loadedConfig struct {
	Files       []string
	Settings    extcfg.Settings
	Definitions []mixin.Definition
}

// loadConfig resolves config files, decodes them and builds the definitions
// to register. Configured extensions override builtins of the same name.
func loadConfig(flagFiles []string, noBuiltins bool) (loadedConfig, error) {
	configDir, err := resolveConfigDir()
	if err != nil {
		return loadedConfig{}, err
	}
	files, err := resolveExtensionFiles(configDir, flagFiles)
	if err != nil {
		return loadedConfig{}, err
	}
	doc, err := loadDocuments(files)
	if err != nil {
		return loadedConfig{}, err
	}
	if err := extcfg.ValidateSettings(doc.Settings); err != nil {
		return loadedConfig{}, err
	}
	configured, err := extcfg.Definitions(doc.Extensions)
	if err != nil {
		return loadedConfig{}, err
	}

	var builtins []mixin.Definition
	if !noBuiltins {
		builtins = mixin.Builtins()
	}
	defs := extcfg.WithBuiltins(builtins, configured)
	if len(defs) == 0 {
		return loadedConfig{}, fmt.Errorf(
			"no extensions: add *.yml or *.hcl files to ~/.config/%s/extensions/, set $%s, or use --config",
			appName, envExtensions,
		)
	}
	return loadedConfig{Files: files, Settings: doc.Settings, Definitions: defs}, nil
}
