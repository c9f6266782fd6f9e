package watsonx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const apikeyGrant = "urn:ibm:params:oauth:grant-type:apikey"

// TokenSource exchanges an IAM API key for a bearer token and caches it
// until shortly before expiry. Safe for concurrent use.
type TokenSource struct {
	URL    string
	APIKey string
	Client *http.Client

	mu    sync.Mutex
	token string
	exp   time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token returns a valid bearer token, refreshing when the cached one is
// within a minute of expiry.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.token != "" && time.Now().Before(ts.exp.Add(-time.Minute)) {
		return ts.token, nil
	}

	body := url.Values{
		"grant_type": {apikeyGrant},
		"apikey":     {ts.APIKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.URL, strings.NewReader(body.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := ts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %s", ErrTokenExchange, resp.Status)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: response has no access token", ErrTokenExchange)
	}

	ts.token = tr.AccessToken
	ts.exp = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return ts.token, nil
}
