// internal/chatclient/client.go
package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	commonhttp "titanic-agent/internal/common/http"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000"
	DefaultTimeout = 30 * time.Second
	EnvBaseURL     = "BACKEND_URL"
)

const (
	msgConnection = "Cannot connect to backend. Make sure the API server is running."
	msgTimeout    = "Request timed out. The model may be taking too long."
	msgBadFormat  = "Invalid response format from backend."
)

// ResolveBaseURL picks the flag value, then $BACKEND_URL, then the default.
func ResolveBaseURL(flag string) string {
	for _, candidate := range []string{flag, os.Getenv(EnvBaseURL)} {
		if c := strings.TrimSpace(candidate); c != "" {
			return strings.TrimRight(c, "/")
		}
	}
	return DefaultBaseURL
}

// Reply is what the user sees for one question. Image is base64 PNG or "".
type Reply struct {
	Answer string
	Image  string
}

func (r Reply) HasImage() bool {
	return r.Image != ""
}

type Client struct {
	baseURL string
	http    *commonhttp.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    commonhttp.NewClient(timeout),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer *string `json:"answer"`
	Image  *string `json:"image"`
}

// Ask posts one question. Failures come back as a Reply with a fixed
// message so the caller can always render something.
func (c *Client) Ask(ctx context.Context, question string) Reply {
	resp, err := c.http.PostJSON(ctx, c.baseURL+"/ask", askRequest{Question: question})
	if err != nil {
		return Reply{Answer: describe(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Reply{Answer: fmt.Sprintf("Backend error (Status %d)", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{Answer: describe(err)}
	}
	var out askResponse
	if err := json.Unmarshal(body, &out); err != nil || out.Answer == nil {
		return Reply{Answer: msgBadFormat}
	}

	reply := Reply{Answer: *out.Answer}
	if out.Image != nil {
		reply.Image = *out.Image
	}
	return reply
}

// Ping checks that the API answers its liveness route.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func describe(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return msgTimeout
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if (errors.As(err, &opErr) && opErr.Op == "dial") || errors.As(err, &dnsErr) {
		return msgConnection
	}
	return fmt.Sprintf("Unexpected error: %v", err)
}
