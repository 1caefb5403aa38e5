package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fleet-app/pkg/auth"
)

type serviceClient struct {
	name    string
	baseURL string
	http    *http.Client
}

func newServiceClient(name, baseURL string, timeout time.Duration) serviceClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return serviceClient{name: name, baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// send issues an internal JSON request and only checks the status code.
func (c serviceClient) send(ctx context.Context, method, path string, body interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.InternalServiceHeader, "true")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", c.name, resp.StatusCode)
	}
	return nil
}
