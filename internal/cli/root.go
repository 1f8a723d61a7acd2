// Package cli implements the wsget command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "wsget",
	Short:   "A terminal client for the wsclient request library",
	Version: version,
	Long: `wsget issues HTTP requests through the wsclient library: immutable
request descriptors, asynchronous execution, per-request auth, proxy and
timeout overrides, with JSONPath extraction and JSON Schema validation of
responses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the command tree.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(postCmd)
	RootCmd.AddCommand(putCmd)
	RootCmd.AddCommand(deleteCmd)
}
