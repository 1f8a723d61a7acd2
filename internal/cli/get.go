package cli

import (
	"net/http"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get URL",
	Short: "Make a GET request to the specified URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCLIClient()
		if err != nil {
			return err
		}
		defer client.Close()

		req, err := buildRequest(cmd, client, args[0])
		if err != nil {
			return err
		}
		return runRequest(cmd, req, http.MethodGet)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete URL",
	Short: "Make a DELETE request to the specified URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCLIClient()
		if err != nil {
			return err
		}
		defer client.Close()

		req, err := buildRequest(cmd, client, args[0])
		if err != nil {
			return err
		}
		return runRequest(cmd, req, http.MethodDelete)
	},
}

func init() {
	requestFlags(getCmd)
	requestFlags(deleteCmd)
}
