package cli

import (
	"net/http"

	"github.com/spf13/cobra"
)

var postCmd = &cobra.Command{
	Use:   "post URL",
	Short: "Make a POST request to the specified URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithBody(cmd, args[0], http.MethodPost)
	},
}

var putCmd = &cobra.Command{
	Use:   "put URL",
	Short: "Make a PUT request to the specified URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithBody(cmd, args[0], http.MethodPut)
	},
}

func runWithBody(cmd *cobra.Command, rawURL, method string) error {
	client, err := newCLIClient()
	if err != nil {
		return err
	}
	defer client.Close()

	req, err := buildRequest(cmd, client, rawURL)
	if err != nil {
		return err
	}

	body, err := buildBody(cmd)
	if err != nil {
		return err
	}
	req = req.WithBody(body)

	if contentType, _ := cmd.Flags().GetString("content-type"); contentType != "" {
		req = req.WithContentType(contentType)
	}

	return runRequest(cmd, req, method)
}

func init() {
	requestFlags(postCmd)
	bodyFlags(postCmd)
	requestFlags(putCmd)
	bodyFlags(putCmd)
}
