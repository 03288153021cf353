package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seekr-dev/seekr/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seekrd",
		Short: "Seekr daemon",
		Long:  "Seekr daemon for serving codebase indexing and retrieval-augmented queries",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(cli.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
