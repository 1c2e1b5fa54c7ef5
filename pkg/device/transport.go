package device

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MessageContentType is the media type of a raw protocol message
const MessageContentType = "application/octet-stream"

// maxReplySize bounds how much of a reply body is read
const maxReplySize = 64 * 1024

// HTTPTransport posts each message to a controller and returns the response
// body as the reply.
type HTTPTransport struct {
	URL    string
	Client *http.Client
}

// NewHTTPTransport returns a transport for the controller at baseURL
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		URL:    baseURL + "/api/v1/messages",
		Client: &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTransport) Exchange(ctx context.Context, msg []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(msg))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", MessageContentType)

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("controller returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	return body, nil
}
