package suggest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"
	"pkt.systems/pslog"

	"pkt.systems/crust/internal/shellerr"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash"
	// DefaultMaxTokens caps the answer length.
	DefaultMaxTokens = 40
	// DefaultTimeout bounds one request.
	DefaultTimeout = 30 * time.Second
	// DefaultAPIKeyEnv names the environment variable holding the API key.
	DefaultAPIKeyEnv = "GEMINI_API_KEY"
)

// ErrNoAPIKey is returned when no API key is available.
var ErrNoAPIKey = errors.New("gemini api key is not set")

// GeminiConfig configures the Gemini suggester.
type GeminiConfig struct {
	APIKey    string
	APIKeyEnv string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini asks a Gemini model for command lines.
type Gemini struct {
	models    contentGenerator
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewGemini builds a Gemini suggester. The API key comes from cfg.APIKey or
// the environment variable named by cfg.APIKeyEnv.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		env := cfg.APIKeyEnv
		if env == "" {
			env = DefaultAPIKeyEnv
		}
		apiKey = os.Getenv(env)
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGemini(client.Models, cfg), nil
}

func newGemini(models contentGenerator, cfg GeminiConfig) *Gemini {
	g := &Gemini{
		models:    models,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.maxTokens <= 0 {
		g.maxTokens = DefaultMaxTokens
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	return g
}

// Suggest implements Suggester. Failures are NetworkError-class.
func (g *Gemini) Suggest(ctx context.Context, question string) (string, error) {
	log := pslog.Ctx(ctx).With("model", g.model)
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(Prompt(question), genai.RoleUser),
	}
	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.maxTokens),
		StopSequences:   []string{"`"},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
			return "", ctxErr
		}
		log.Warn("suggest request failed", "err", err, "elapsed", time.Since(start))
		return "", shellerr.New(shellerr.KindNetwork, "ask", "", err)
	}
	answer := ""
	if resp != nil {
		answer = Clean(resp.Text())
	}
	if answer == "" {
		log.Warn("suggest empty answer", "elapsed", time.Since(start))
		return "", shellerr.Errorf(shellerr.KindNetwork, "ask", "", nil, "no answer came back")
	}
	log.Debug("suggest answered", "elapsed", time.Since(start))
	return answer, nil
}
