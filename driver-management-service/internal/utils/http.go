package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fleet-app/driver-management-service/internal/models"
	"fleet-app/pkg/auth"
)

// envelope is the {success, data, message} body every service answers with.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

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

// do sends an internal request and decodes the envelope data into out.
func (c serviceClient) do(ctx context.Context, method, path string, body interface{}, headers map[string]string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", c.name, err)
		}
		reader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.InternalServiceHeader, "true")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", models.ErrNotFound, c.name, path)
	}
	if resp.StatusCode == http.StatusBadRequest {
		return fmt.Errorf("%w: %s rejected %s %s", models.ErrValidation, c.name, method, path)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", c.name, resp.StatusCode)
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%s: empty response data", c.name)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w", c.name, err)
	}
	return nil
}
