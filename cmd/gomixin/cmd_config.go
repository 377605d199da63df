package main

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the " + appName + " config directory",
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
