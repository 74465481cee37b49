// Package ai implements the LLM capability: a rate-limited,
// circuit-breaker-guarded query() wrapping a raw Gemini REST call, plus
// schema-validated parsing of the sentiment_analysis JSON contract.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"golang.org/x/sync/semaphore"
)

// Client wraps the Gemini generateContent REST endpoint with a
// raw-HTTP call, no vendor SDK.
type Client struct {
	apiKey string
	url    string
	http   *http.Client
	sem    *semaphore.Weighted // token-bucket stand-in: bounds concurrent calls
}

// NewClient builds a Client from GEMINI_API_KEY/GEMINI_MODEL, defaulting to
// a limit of 5 concurrent in-flight calls.
func NewClient() *Client {
	apiKey := os.Getenv("GEMINI_API_KEY")
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", model)

	if apiKey == "" {
		log.Println("ai: WARNING: GEMINI_API_KEY not found, LLM sentiment source will be disabled")
	}

	return &Client{
		apiKey: apiKey,
		url:    url,
		http:   &http.Client{},
		sem:    semaphore.NewWeighted(5),
	}
}

// Query sends prompt to the model and returns the raw text response plus
// usage accounting. Deadline is the caller's responsibility via ctx.
func (c *Client) Query(ctx context.Context, prompt string, maxTokens int) (string, Usage, error) {
	if c.apiKey == "" {
		return "", Usage{}, fmt.Errorf("ai: client not configured")
	}
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", Usage{}, err
	}
	defer c.sem.Release(1)

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]interface{}{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"response_mime_type": "application/json",
			"maxOutputTokens":    maxTokens,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", Usage{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", Usage{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", Usage{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", Usage{}, fmt.Errorf("ai: api error %d: %s", resp.StatusCode, string(raw))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", Usage{}, err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", Usage{}, fmt.Errorf("ai: no candidates in response")
	}

	usage := Usage{
		PromptTokens:     result.UsageMetadata.PromptTokenCount,
		CompletionTokens: result.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      result.UsageMetadata.TotalTokenCount,
	}
	return result.Candidates[0].Content.Parts[0].Text, usage, nil
}

// ParseSentiment validates raw JSON text against the sentiment_analysis
// schema. A malformed or out-of-range payload returns (nil, false) rather
// than an error; a bad response reads as "no data".
func ParseSentiment(text string) (*SentimentAnalysis, bool) {
	var s SentimentAnalysis
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, false
	}
	if !s.Valid() {
		return nil, false
	}
	if s.Confidence < 0.5 {
		return nil, false
	}
	return &s, true
}
