package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client posts collected samples to the server's ingestion API
type Client struct {
	serverURL string
	token     string
	http      *http.Client
}

// NewClient creates an API client. token may be empty for open deployments.
func NewClient(serverURL, token string) *Client {
	return &Client{
		serverURL: serverURL,
		token:     token,
		http:      &http.Client{Timeout: 3 * time.Second},
	}
}

type metricsBody struct {
	MAC     string  `json:"mac"`
	Name    string  `json:"name"`
	IP      string  `json:"ip,omitempty"`
	CPU     float64 `json:"cpu"`
	RAM     float64 `json:"ram"`
	Disk    float64 `json:"disk"`
	NetSent float64 `json:"net_sent"`
	NetRecv float64 `json:"net_recv"`
}

// SendMetrics posts one sample to /api/metrics
func (c *Client) SendMetrics(ctx context.Context, mac, name, ip string, s *Sample) error {
	body := metricsBody{
		MAC:     mac,
		Name:    name,
		IP:      ip,
		CPU:     s.CPU,
		RAM:     s.RAM,
		Disk:    s.Disk,
		NetSent: s.NetSent,
		NetRecv: s.NetRecv,
	}
	return c.post(ctx, "/api/metrics", body)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post %s: server returned %s", path, resp.Status)
	}
	return nil
}
