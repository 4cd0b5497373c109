package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"pkt.systems/crust/internal/shellerr"
	"pkt.systems/crust/schema"
)

type fakeModels struct {
	model    string
	prompt   string
	config   *genai.GenerateContentConfig
	answer   string
	err      error
	blocking bool
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.blocking {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.answer, genai.RoleModel)}},
	}, nil
}

func TestPrompt(t *testing.T) {
	got := Prompt("  list files sorted by size? ")
	want := "Provide a command line snippet for achieving the following task. Only answer with the code, nothing more.\nTask: list files sorted by size?\nSnippet: `"
	if got != want {
		t.Fatalf("unexpected prompt:\n%q\nwant\n%q", got, want)
	}
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"ls -S`":                     "ls -S",
		"  du -sh *  ":               "du -sh *",
		"```sh\nfind . -name x\n```": "find . -name x",
		"\n\n`pwd`\nextra":           "pwd",
		"$ ls -la":                   "ls -la",
		"``":                         "",
		"":                           "",
	}
	for in, want := range cases {
		if got := Clean(in); got != want {
			t.Fatalf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGeminiSuggest(t *testing.T) {
	models := &fakeModels{answer: "ls -S`"}
	g := newGemini(models, GeminiConfig{})
	got, err := g.Suggest(context.Background(), "list files by size")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if got != "ls -S" {
		t.Fatalf("unexpected answer %q", got)
	}
	if models.model != DefaultModel {
		t.Fatalf("expected default model, got %q", models.model)
	}
	if models.config.MaxOutputTokens != DefaultMaxTokens {
		t.Fatalf("expected %d max tokens, got %d", DefaultMaxTokens, models.config.MaxOutputTokens)
	}
	if !strings.Contains(models.prompt, "Task: list files by size?") {
		t.Fatalf("question missing from prompt %q", models.prompt)
	}
}

func TestGeminiFailureIsNetworkError(t *testing.T) {
	g := newGemini(&fakeModels{err: errors.New("dial tcp: refused")}, GeminiConfig{Model: "m"})
	_, err := g.Suggest(context.Background(), "x")
	if !errors.Is(err, schema.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if shellerr.KindOf(err) != shellerr.KindNetwork {
		t.Fatalf("unexpected kind %v", shellerr.KindOf(err))
	}
}

func TestGeminiEmptyAnswerIsNetworkError(t *testing.T) {
	g := newGemini(&fakeModels{answer: "``"}, GeminiConfig{})
	if _, err := g.Suggest(context.Background(), "x"); !errors.Is(err, schema.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestGeminiCanceled(t *testing.T) {
	g := newGemini(&fakeModels{blocking: true}, GeminiConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Suggest(ctx, "x")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	t.Setenv("CRUST_TEST_GEMINI_KEY", "")
	_, err := NewGemini(context.Background(), GeminiConfig{APIKeyEnv: "CRUST_TEST_GEMINI_KEY"})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestFuncAdapter(t *testing.T) {
	var s Suggester = Func(func(_ context.Context, q string) (string, error) { return "echo " + q, nil })
	got, err := s.Suggest(context.Background(), "hi")
	if err != nil || got != "echo hi" {
		t.Fatalf("unexpected %q %v", got, err)
	}
}
