// Package facegate calls the face recognition microservice backing the
// portaria's facial method.
package facegate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Match is one gallery hit from a 1:N search.
type Match struct {
	StudentID  string  `json:"user_id"`
	Similarity float64 `json:"similarity"`
	Name       string  `json:"name,omitempty"`
}

// Client calls the face recognition service. With Skip set it returns
// canned results so the rest of the stack runs without the service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client with a generous timeout; face processing is slow.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Search runs a 1:N lookup of the captured frame against the enrolled
// gallery and returns the best match. Implements the terminal's
// GallerySearcher contract.
func (c *Client) Search(ctx context.Context, imageURL string) (string, float64, error) {
	if c.Skip {
		return "101", 0.93, nil
	}
	if imageURL == "" {
		return "", 0, fmt.Errorf("image url required")
	}

	var out struct {
		Matches       []Match `json:"matches"`
		FacesDetected int     `json:"faces_detected"`
	}
	if err := c.post(ctx, "/search", map[string]string{"image_url": imageURL}, &out); err != nil {
		return "", 0, err
	}
	if len(out.Matches) == 0 {
		return "", 0, fmt.Errorf("no gallery match")
	}
	best := out.Matches[0]
	for _, m := range out.Matches[1:] {
		if m.Similarity > best.Similarity {
			best = m
		}
	}
	return best.StudentID, best.Similarity, nil
}

// Enroll registers a student's reference photo in the gallery, done once
// at admission.
func (c *Client) Enroll(ctx context.Context, studentID, name, imageURL string) error {
	if c.Skip {
		return nil
	}
	if studentID == "" || imageURL == "" {
		return fmt.Errorf("student id and image url required")
	}

	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	body := map[string]string{"user_id": studentID, "name": name, "image_url": imageURL}
	if err := c.post(ctx, "/enroll", body, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("enroll rejected: %s", out.Message)
	}
	return nil
}

// Health pings the service.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("face service error %s: %s", resp.Status, string(respBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
