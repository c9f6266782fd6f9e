package watsonx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eden-ncr/backend/internal/utils"
)

// Client calls the watsonx.ai text generation endpoint. Responses are
// memoized per prompt for a short TTL so a retried report run does not
// re-bill identical chunks.
type Client struct {
	URL       string
	ModelID   string
	ProjectID string
	Tokens    *TokenSource
	Policy    RetryPolicy
	Client    *http.Client

	cacheMu    sync.Mutex
	cacheStore map[uint64]cacheEntry
}

const cacheTTL = 5 * time.Minute

type cacheEntry struct {
	value string
	exp   time.Time
}

// StatusError reports a non-2xx generation response after retries were
// exhausted or the status was not retryable.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("generation http error: status %d: %s", e.Status, e.Body)
}

type genRequest struct {
	Input      string        `json:"input"`
	Parameters genParameters `json:"parameters"`
	ModelID    string        `json:"model_id"`
	ProjectID  string        `json:"project_id"`
}

type genParameters struct {
	DecodingMethod string  `json:"decoding_method"`
	MaxNewTokens   int     `json:"max_new_tokens"`
	MinNewTokens   int     `json:"min_new_tokens"`
	Temperature    float64 `json:"temperature"`
}

type genResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
	} `json:"results"`
}

func (c *Client) Complete(ctx context.Context, prompt string, p Params) (string, error) {
	if v, ok := c.cacheGet(prompt); ok {
		return v, nil
	}

	if p.MaxNewTokens <= 0 {
		p.MaxNewTokens = 4000
	}
	body, err := json.Marshal(genRequest{
		Input: prompt,
		Parameters: genParameters{
			DecodingMethod: "greedy",
			MaxNewTokens:   p.MaxNewTokens,
			MinNewTokens:   0,
			Temperature:    p.Temperature,
		},
		ModelID:   c.ModelID,
		ProjectID: c.ProjectID,
	})
	if err != nil {
		return "", err
	}

	policy := c.Policy
	if policy.MaxAttempts <= 0 {
		policy = DefaultPolicy()
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := policy.wait(ctx, attempt-1); err != nil {
				return "", err
			}
		}

		text, retry, err := c.once(ctx, body)
		if err == nil {
			c.cacheSet(prompt, text)
			return text, nil
		}
		lastErr = err
		if !retry {
			return "", err
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("generation attempt failed, retrying")
	}
	return "", lastErr
}

// once runs a single generation attempt; the second return reports whether
// the failure is worth retrying under the client's policy.
func (c *Client) once(ctx context.Context, body []byte) (string, bool, error) {
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return "", false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 100 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		// Network-level failures get the same treatment as a 5xx.
		return "", true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		policy := c.Policy
		if policy.MaxAttempts <= 0 {
			policy = DefaultPolicy()
		}
		return "", policy.retryable(resp.StatusCode), &StatusError{Status: resp.StatusCode, Body: string(b)}
	}

	var gr genResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", false, err
	}
	if len(gr.Results) == 0 {
		return "", false, ErrEmptyResult
	}
	return gr.Results[0].GeneratedText, false, nil
}

func (c *Client) cacheGet(prompt string) (string, bool) {
	key := utils.HashStringToUint64(prompt)
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	if e, ok := c.cacheStore[key]; ok {
		if time.Now().Before(e.exp) {
			return e.value, true
		}
		delete(c.cacheStore, key)
	}
	return "", false
}

func (c *Client) cacheSet(prompt, value string) {
	key := utils.HashStringToUint64(prompt)
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	if c.cacheStore == nil {
		c.cacheStore = map[uint64]cacheEntry{}
	}
	c.cacheStore[key] = cacheEntry{value: value, exp: time.Now().Add(cacheTTL)}
}
