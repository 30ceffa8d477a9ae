package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(insertCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
