package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"

	// Error bodies from gateways can be full HTML pages; only the head is
	// worth carrying in the error chain.
	maxErrBodyBytes = 512
)

type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

// compatClient speaks the OpenAI-compatible HTTP surface. One instance per
// provider so connections are reused across the embed bursts that schema
// indexing produces.
type compatClient struct {
	name    string
	apiKey  string
	baseURL string
	headers map[string]string
	hc      *http.Client
}

func newCompatClient(name, apiKey, baseURL string, headers map[string]string) *compatClient {
	return &compatClient{
		name:    name,
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers,
		hc:      &http.Client{Timeout: 120 * time.Second},
	}
}

type compatChatRequest struct {
	Model    string          `json:"model"`
	Messages []compatChatMsg `json:"messages"`
	Stream   bool            `json:"stream"`
}

type compatChatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type compatChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type compatEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type compatEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *compatClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	if c.apiKey == "" {
		return ErrUnavailable
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBodyBytes))
		return fmt.Errorf("%s request failed: %s: %s", c.name, resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *compatClient) chat(ctx context.Context, model string, prompt string) (string, error) {
	reqBody := compatChatRequest{
		Model:    model,
		Messages: []compatChatMsg{{Role: "user", Content: prompt}},
		Stream:   false,
	}
	var out compatChatResponse
	if err := c.post(ctx, "/chat/completions", reqBody, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s response has no choices", c.name)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (c *compatClient) embed(ctx context.Context, model string, text string) ([]float32, error) {
	var out compatEmbedResponse
	if err := c.post(ctx, "/embeddings", compatEmbedRequest{Model: model, Input: text}, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("%s response has no embeddings", c.name)
	}
	return out.Data[0].Embedding, nil
}

type openAIProvider struct {
	client *compatClient
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func (p *openAIProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	return p.client.chat(ctx, model, prompt)
}

type openAIEmbedProvider struct {
	client *compatClient
}

func (p *openAIEmbedProvider) Name() string {
	return "openai"
}

// Embed ignores taskType: the embeddings endpoint has no task hint, unlike
// gemini. The cache layer still keys on it so vectors never cross task kinds.
func (p *openAIEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	return p.client.embed(ctx, model, text)
}

func newOpenAICompatClient(args interface{}) (*compatClient, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return newCompatClient("openai", cfg.APIKey, baseURL, nil), nil
}

func createOpenAIFactory(args interface{}) (IAIProvider, error) {
	client, err := newOpenAICompatClient(args)
	if err != nil {
		return nil, err
	}
	return &openAIProvider{client: client}, nil
}

func createOpenAIEmbedFactory(args interface{}) (IEmbedProvider, error) {
	client, err := newOpenAICompatClient(args)
	if err != nil {
		return nil, err
	}
	return &openAIEmbedProvider{client: client}, nil
}

func init() {
	Register("openai", createOpenAIFactory)
	RegisterEmbed("openai", createOpenAIEmbedFactory)
}
