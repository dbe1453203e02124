package rollcallsdk

import (
	"net/http"
	"strings"
	"time"
)

// Client talks to a rollcall daemon.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the daemon at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}
