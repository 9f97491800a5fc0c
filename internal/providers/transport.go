package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const maxRetries = 3

// postJSON sends payload to url and decodes a 200 response body into out.
// Status codes are mapped onto the typed errors that retryWithBackoff understands.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload []byte, out any) error {
	return retryWithBackoff(ctx, maxRetries, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return &rateLimitError{}
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return &authError{message: string(body)}
		case resp.StatusCode >= 500:
			return &serverError{statusCode: resp.StatusCode, body: string(body)}
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
		return nil
	})
}
