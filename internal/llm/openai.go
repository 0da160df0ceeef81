package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements Client for OpenAI and OpenAI-compatible providers
// such as Perplexity.
type OpenAIClient struct {
	client *openai.Client
	config *Config
}

// NewOpenAIClient creates a client for config.Provider. Extra request options
// are applied after the API key and base URL.
func NewOpenAIClient(config *Config, apiKey string, opts ...option.RequestOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultOpenAIConfig()
	}

	base := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		url := config.BaseURL
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		base = append(base, option.WithBaseURL(url))
	}

	return &OpenAIClient{
		client: openai.NewClient(append(base, opts...)...),
		config: config,
	}, nil
}

func (c *OpenAIClient) params(tier ModelTier, messages ...openai.ChatCompletionMessageParamUnion) (openai.ChatCompletionNewParams, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("no model configured for tier %s", tier)
	}
	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(openai.ChatModel(modelName)),
		Temperature: openai.Float(c.config.temperature()),
	}
	if c.config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(c.config.MaxTokens)
	}
	return params, nil
}

func (c *OpenAIClient) complete(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, "", fmt.Errorf("no choices in response")
	}
	return completion, completion.Choices[0].Message.Content, nil
}

// GenerateContent generates text content using the specified model tier
func (c *OpenAIClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	params, err := c.params(tier, openai.UserMessage(prompt))
	if err != nil {
		return "", err
	}
	_, text, err := c.complete(ctx, params)
	return text, err
}

// GenerateJSON generates JSON content using the specified model tier
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	params, err := c.params(tier,
		openai.SystemMessage("Respond with a single valid JSON object and nothing else."),
		openai.UserMessage(prompt),
	)
	if err != nil {
		return "", err
	}
	_, text, err := c.complete(ctx, params)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// Search runs a grounded query. Perplexity receives the domain allowlist as
// search_domain_filter and returns citations beside the completion; OpenAI
// search models return url_citation annotations. URLs the model writes into
// its answer are never citations.
func (c *OpenAIClient) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params, err := c.params(req.Tier, messages...)
	if err != nil {
		return nil, err
	}

	var opts []option.RequestOption
	if c.config.Provider == ProviderPerplexity {
		opts = append(opts, option.WithJSONSet("return_citations", true))
		if len(req.Domains) > 0 {
			opts = append(opts, option.WithJSONSet("search_domain_filter", req.Domains))
		}
	}

	completion, text, err := c.complete(ctx, params, opts...)
	if err != nil {
		return nil, err
	}

	return &SearchResult{Text: text, Citations: parseProviderCitations(completion.JSON.RawJSON())}, nil
}

// GetModel returns the model name for a tier
func (c *OpenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (c *OpenAIClient) Close() error {
	return nil
}

// providerExtras are the non-standard fields Perplexity adds to a completion.
// citations may be a list of URLs or a list of objects.
type providerExtras struct {
	Citations     []json.RawMessage `json:"citations"`
	SearchResults []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"search_results"`
	Choices []struct {
		Message struct {
			Annotations []struct {
				Type        string `json:"type"`
				URLCitation struct {
					URL   string `json:"url"`
					Title string `json:"title"`
				} `json:"url_citation"`
			} `json:"annotations"`
		} `json:"message"`
	} `json:"choices"`
}

func parseProviderCitations(raw string) []Citation {
	if raw == "" {
		return nil
	}
	var extras providerExtras
	if err := json.Unmarshal([]byte(raw), &extras); err != nil {
		return nil
	}

	seen := make(map[string]int)
	var citations []Citation
	add := func(c Citation) {
		if c.URL == "" {
			return
		}
		if i, ok := seen[c.URL]; ok {
			if citations[i].Title == "" {
				citations[i].Title = c.Title
			}
			if citations[i].Text == "" {
				citations[i].Text = c.Text
			}
			return
		}
		seen[c.URL] = len(citations)
		citations = append(citations, c)
	}

	for _, item := range extras.Citations {
		var url string
		if err := json.Unmarshal(item, &url); err == nil {
			add(Citation{URL: url})
			continue
		}
		var obj struct {
			URL     string `json:"url"`
			Title   string `json:"title"`
			Text    string `json:"text"`
			Snippet string `json:"snippet"`
		}
		if err := json.Unmarshal(item, &obj); err == nil {
			text := obj.Text
			if text == "" {
				text = obj.Snippet
			}
			add(Citation{URL: obj.URL, Title: obj.Title, Text: text})
		}
	}
	for _, r := range extras.SearchResults {
		add(Citation{URL: r.URL, Title: r.Title, Text: r.Snippet})
	}
	for _, choice := range extras.Choices {
		for _, a := range choice.Message.Annotations {
			if a.Type == "url_citation" {
				add(Citation{URL: a.URLCitation.URL, Title: a.URLCitation.Title})
			}
		}
	}
	return citations
}
