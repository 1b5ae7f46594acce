package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Problem is one row of the problemset catalog. Rating is 0 for unrated
// problems (Codeforces ratings start at 800).
type Problem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating,omitempty"`
	Tags      []string `json:"tags"`
}

// URL returns the problemset link for the problem.
func (p Problem) URL() string {
	return fmt.Sprintf("https://codeforces.com/problemset/problem/%d/%s", p.ContestID, p.Index)
}

type Contest struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Phase            string `json:"phase"`
	StartTimeSeconds int64  `json:"startTimeSeconds"`
}

type apiResponse struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment,omitempty"`
	Result  json.RawMessage `json:"result"`
}

type problemsetResult struct {
	Problems []Problem `json:"problems"`
}

// Client talks to the two read-only catalog endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Problems(ctx context.Context) ([]Problem, error) {
	raw, err := c.call(ctx, "/problemset.problems")
	if err != nil {
		return nil, err
	}
	var res problemsetResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode problemset result: %w", err)
	}
	return res.Problems, nil
}

func (c *Client) Contests(ctx context.Context) ([]Contest, error) {
	raw, err := c.call(ctx, "/contest.list")
	if err != nil {
		return nil, err
	}
	var res []Contest
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode contest list: %w", err)
	}
	return res, nil
}

func (c *Client) call(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}
	var env apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if env.Status != "OK" {
		return nil, fmt.Errorf("fetch %s: status %q (%s)", path, env.Status, env.Comment)
	}
	return env.Result, nil
}
