// Package ws is a request-building and response-adapting layer between an
// application-facing client API and the net/http engine that performs the
// actual socket I/O, connection pooling, TLS, and redirect handling.
//
// Requests are immutable descriptors: every With* transform returns a new
// value, so a configured request can be branched or executed repeatedly.
// Execution is asynchronous and settles a single-assignment future.
//
// Basic usage:
//
//	client, err := ws.NewClient(
//	    ws.WithRequestTimeout(30*time.Second),
//	    ws.WithUserAgent("myapp/1.0"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.URL("https://api.example.com/users").
//	    WithQueryParam("limit", "10").
//	    WithHeader("Accept", "application/json").
//	    Get(context.Background()).
//	    Wait(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.StatusCode)
//
// Form bodies and signing:
//
//	req := client.URL("https://api.example.com/token").
//	    WithContentType("application/x-www-form-urlencoded").
//	    Sign(myOAuthCalculator)
//	fut := req.Post(ctx, ws.StringBody("grant_type=client_credentials"))
//
// When a signature calculator is attached to a form-encoded byte body,
// the payload is decoded into structured form parameters so the
// calculator can sign over individual fields.
package ws
