package main

import "github.com/huonw/external-mixin/pkg/lib"

func main() {
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		lib.Exit(err)
	}
}
