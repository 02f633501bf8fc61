package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "todolist",
	Short: "TodoList API server",
	Long: `TodoList API server. Without a subcommand it serves HTTP.

	todolist            # same as "todolist serve"
	todolist migrate up # apply postgres schema migrations
`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
