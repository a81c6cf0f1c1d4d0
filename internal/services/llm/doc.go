// Package llm provides an OpenAI-compatible chat client used to translate
// subtitle lines.
//
// # Entry Points
//
// NewClient: construct client from Config (api key, base URL, model, timeout).
// Client.Complete: send one user prompt at temperature 0, receive the text.
// Client.ListModels: enumerate the models advertised by the endpoint.
// Client.HealthCheck: verify the credential against the models endpoint.
//
// # Retry Behaviour
//
// By default each request is attempted once. WithRetryMaxAttempts enables
// retries on HTTP 408/429/5xx, empty completions and network timeouts with
// exponential backoff (base 1s, max 10s). Retry-After is honoured. Context
// cancellation aborts retries immediately.
package llm
