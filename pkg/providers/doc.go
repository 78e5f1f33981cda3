// Package providers implements the remote LLM client used by the
// completion task source.
//
// The Provider interface is the seam between the dispatcher's opaque task
// functions and a concrete API. HTTPProvider talks to any OpenAI-compatible
// chat completions endpoint with connection pooling and per-request
// timeouts.
//
// # Error Taxonomy
//
// Errors are typed so callers can branch on failure class:
//
//   - RateLimitError: HTTP 429. Its text carries both the "429" and
//     "rate limit" markers, so the dispatcher recognizes the failure as
//     retryable and requeues the task instead of recording an error.
//   - AuthError: HTTP 401/403, terminal.
//   - TimeoutError: the request exceeded its deadline, terminal.
//   - ParseError: malformed response body, terminal.
//   - ProviderError: any other failure, terminal.
package providers
