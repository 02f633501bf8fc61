package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/todo-team/todolist/internal/client"
)

const passphraseEnv = "TODOCTL_PASSPHRASE"

var (
	apiURL      string
	sessionPath string

	api *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "todoctl",
	Short: "Command line client for the TodoList API",
	Long: `Command line client for the TodoList API. The signed-in session is kept
in a single file; set TODOCTL_PASSPHRASE to keep it encrypted.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore(sessionPath)
		if err != nil {
			return err
		}
		session := client.NewSession(store)
		if _, _, err := session.Restore(); err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
		api, err = client.New(apiURL, session, client.WithIdempotencyKeys())
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("TODOCTL_API", "http://localhost:5000"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", defaultSessionPath(), "session file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore(path string) (client.Store, error) {
	if pass := os.Getenv(passphraseEnv); pass != "" {
		return client.NewSealedFileStore(path, []byte(pass))
	}
	return client.NewFileStore(path), nil
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".todoctl-session.json"
	}
	return filepath.Join(dir, "todoctl", "session.json")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// report prints the outcome of a message-only action and turns a failed
// state back into an error for the exit code.
func report(cmd *cobra.Command, state client.ActionState) error {
	if state.IsError {
		return fmt.Errorf("%s", state.Message)
	}
	fmt.Fprintln(cmd.OutOrStdout(), state.Message)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
