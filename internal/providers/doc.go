// Package providers implements the text-completion capability used by
// reviewers.
//
// Supported providers: Anthropic (Claude), OpenAI, Google (Gemini), and
// Ollama / LM Studio through their OpenAI-compatible endpoint.
//
// All providers share one JSON transport that maps HTTP status codes to typed
// errors and retries rate-limit and server errors with exponential back-off.
// Nothing is retried once the caller's context is done. Tests point clients at
// httptest servers by replacing the url field.
//
// Use [New] to obtain a [Completer] by provider name and model string.
package providers
