// Package casesdk is the Go client for the casedesk API.
//
// SDKClient covers the unauthenticated endpoints (login, registration and
// health). Logging in returns a Session, which carries the bearer token and
// exposes the case, admin and identity endpoints.
//
//	client := casesdk.NewSDKClient("http://localhost:8080")
//	sess, err := client.Login(ctx, "alice", "Sup3r-secret!", "")
//	cases, err := sess.ListCases(ctx, casesdk.ListCasesOptions{Status: "Open"})
//
// Every non-success response is returned as an *APIError, which matches the
// predefined errors with errors.Is.
package casesdk
