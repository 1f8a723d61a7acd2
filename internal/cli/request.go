package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/avlberg/wsclient/internal/output"
	"github.com/avlberg/wsclient/pkg/jsonpath"
	"github.com/avlberg/wsclient/pkg/jsonschema"
	"github.com/avlberg/wsclient/ws"
)

// requestFlags registers the flags shared by every verb command.
func requestFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("header", "H", nil, "header to include as 'Name: value' (repeatable)")
	cmd.Flags().StringArrayP("query", "q", nil, "query parameter as 'name=value' (repeatable)")
	cmd.Flags().StringP("user", "u", "", "credentials as 'username:password'")
	cmd.Flags().String("auth-scheme", "BASIC", "auth scheme: BASIC, DIGEST, NTLM, KERBEROS, SPNEGO")
	cmd.Flags().String("proxy", "", "proxy as 'host:port'")
	cmd.Flags().String("proxy-protocol", "", "proxy protocol: http, https, ntlm, kerberos, spnego")
	cmd.Flags().String("proxy-user", "", "proxy credentials as 'principal:password'")
	cmd.Flags().DurationP("timeout", "t", 30*time.Second, "request timeout")
	cmd.Flags().Bool("no-redirect", false, "do not follow redirects")
	cmd.Flags().String("virtual-host", "", "override the Host header")
	cmd.Flags().String("extract", "", "JSONPath expression to extract from the response body")
	cmd.Flags().String("schema", "", "JSON Schema file to validate the response body against")
	cmd.Flags().BoolP("verbose", "v", false, "enable verbose output")
	cmd.Flags().Bool("no-color", false, "disable colored output")
}

// bodyFlags registers payload flags for verbs that carry one.
func bodyFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("data", "d", "", "request body")
	cmd.Flags().String("body-file", "", "file to stream as the request body")
	cmd.Flags().String("content-type", "", "Content-Type of the request body")
}

// buildRequest applies the shared flags to a fresh descriptor.
func buildRequest(cmd *cobra.Command, client *ws.Client, rawURL string) (*ws.Request, error) {
	req := client.URL(rawURL)

	headers, _ := cmd.Flags().GetStringArray("header")
	for _, header := range headers {
		name, value, ok := strings.Cut(header, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q, want 'Name: value'", header)
		}
		req = req.WithHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	queries, _ := cmd.Flags().GetStringArray("query")
	for _, q := range queries {
		name, value, _ := strings.Cut(q, "=")
		req = req.WithQueryParam(name, value)
	}

	if user, _ := cmd.Flags().GetString("user"); user != "" {
		username, password, _ := strings.Cut(user, ":")
		scheme, _ := cmd.Flags().GetString("auth-scheme")
		req = req.WithAuth(username, password, ws.AuthScheme(strings.ToUpper(scheme)))
	}

	if proxy, _ := cmd.Flags().GetString("proxy"); proxy != "" {
		host, portStr, err := net.SplitHostPort(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q, want 'host:port'", proxy)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy port %q", portStr)
		}
		server := ws.ProxyServer{Host: host, Port: port}
		server.Protocol, _ = cmd.Flags().GetString("proxy-protocol")
		if proxyUser, _ := cmd.Flags().GetString("proxy-user"); proxyUser != "" {
			server.Principal, server.Password, _ = strings.Cut(proxyUser, ":")
		}
		req = req.WithProxyServer(server)
	}

	if noRedirect, _ := cmd.Flags().GetBool("no-redirect"); noRedirect {
		req = req.WithFollowRedirects(false)
	}
	if vhost, _ := cmd.Flags().GetString("virtual-host"); vhost != "" {
		req = req.WithVirtualHost(vhost)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	return req.WithRequestTimeout(timeout)
}

// buildBody resolves the payload flags into a body variant.
func buildBody(cmd *cobra.Command) (ws.Body, error) {
	data, _ := cmd.Flags().GetString("data")
	file, _ := cmd.Flags().GetString("body-file")
	if data != "" && file != "" {
		return nil, fmt.Errorf("--data and --body-file are mutually exclusive")
	}
	switch {
	case data != "":
		return ws.StringBody(data), nil
	case file != "":
		return ws.FileBody(file), nil
	default:
		return ws.EmptyBody{}, nil
	}
}

// runRequest executes the request and handles formatting, extraction and
// schema validation. It returns a non-nil error for transport failures
// and schema violations so the command exits non-zero.
func runRequest(cmd *cobra.Command, req *ws.Request, method string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")
	formatter := output.NewFormatter(verbose, noColor)

	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRequest(req.WithMethod(method)))

	resp, err := req.Execute(context.Background(), method).Wait(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatResponse(resp))

	if path, _ := cmd.Flags().GetString("extract"); path != "" {
		body, err := resp.Text()
		if err != nil {
			return err
		}
		value, err := jsonpath.Extract(body, path)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
	}

	if schemaPath, _ := cmd.Flags().GetString("schema"); schemaPath != "" {
		schema, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("reading schema: %w", err)
		}
		body, err := resp.Text()
		if err != nil {
			return err
		}
		valid, failures, err := jsonschema.ValidateWithErrors(body, string(schema))
		if err != nil {
			return err
		}
		if !valid {
			return fmt.Errorf("schema validation failed: %s", strings.Join(failures, "; "))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema: valid")
	}

	return nil
}

func newCLIClient() (*ws.Client, error) {
	return ws.NewClient()
}
