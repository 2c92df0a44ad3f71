package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/justestif/go-moodify/internal/mood"
)

// DefaultModel is the OpenAI model used when none is configured.
const DefaultModel = "gpt-5-mini"

// ErrMissingAPIKey is returned when the OpenAI classifier has no API key.
var ErrMissingAPIKey = errors.New("missing OpenAI API key")

const classifyInstructions = `You label how a person feels from a short note they wrote.
Answer with exactly one mood from this list: happy, sad, calm, anxious, angry, romantic, energetic.
If the note is ambiguous or unrelated to feelings, answer calm.`

// moodResponse is the structured output requested from the model.
type moodResponse struct {
	Mood string `json:"mood" jsonschema:"enum=happy,enum=sad,enum=calm,enum=anxious,enum=angry,enum=romantic,enum=energetic" jsonschema_description:"The single best matching mood"`
}

var moodSchema = generateSchema[moodResponse]()

// OpenAI classifies text with the OpenAI Responses API.
type OpenAI struct {
	client      openai.Client
	model       string
	retryDelays []time.Duration
}

// OpenAIOption configures an OpenAI classifier.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	baseURL     string
	httpClient  *http.Client
	retryDelays []time.Duration
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(u string) OpenAIOption {
	return func(c *openAIConfig) {
		c.baseURL = u
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *openAIConfig) {
		c.httpClient = hc
	}
}

// WithRetryDelays sets the waits between attempts on rate limit or server errors.
func WithRetryDelays(delays ...time.Duration) OpenAIOption {
	return func(c *openAIConfig) {
		c.retryDelays = delays
	}
}

// NewOpenAI creates an OpenAI-backed classifier.
func NewOpenAI(apiKey, model string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := openAIConfig{
		retryDelays: []time.Duration{500 * time.Millisecond, 2 * time.Second},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Retries are handled here so they respect the caller's deadline.
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	}

	return &OpenAI{
		client:      openai.NewClient(reqOpts...),
		model:       model,
		retryDelays: cfg.retryDelays,
	}, nil
}

// Classify asks the model for a mood. An answer outside the taxonomy is an error.
func (o *OpenAI) Classify(ctx context.Context, text string) (mood.Mood, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return mood.Default, nil
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "MoodLabel",
			Schema:      moodSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Mood label JSON"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(200),
		Instructions:    openai.String(classifyInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := o.callWithRetry(ctx, params)
	if err != nil {
		return mood.Default, err
	}

	var out moodResponse
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return mood.Default, fmt.Errorf("decoding model output: %w", err)
	}

	m, ok := mood.Lookup(out.Mood)
	if !ok {
		return mood.Default, fmt.Errorf("%w: %q", ErrUnknownMood, out.Mood)
	}
	return m, nil
}

// callWithRetry retries rate limit and server errors, waiting between
// attempts unless ctx ends first.
func (o *OpenAI) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= len(o.retryDelays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.retryDelays[attempt-1]):
			}
		}

		resp, err := o.client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		if !isRetryable(err) {
			return nil, fmt.Errorf("calling OpenAI: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("calling OpenAI after %d attempts: %w", len(o.retryDelays)+1, lastErr)
}

func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// decodeModelJSON unmarshals a model's JSON answer, tolerating surrounding text.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return fmt.Errorf("unmarshal extracted JSON: %w", err)
	}
	return nil
}

// generateSchema reflects T into the strict JSON schema form the Responses
// API accepts: no refs, no additional properties, every property required.
func generateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	b, err := reflector.Reflect(v).MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}

	m["additionalProperties"] = false
	if props, ok := m["properties"].(map[string]any); ok {
		required := make([]string, 0, len(props))
		for name := range props {
			required = append(required, name)
		}
		m["required"] = required
	}
	delete(m, "$schema")
	return m
}
