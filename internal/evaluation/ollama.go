package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/tbourn/go-tutor-bot/internal/config"
	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// Ollama grades answers with a local model through POST {BaseURL}/api/generate.
type Ollama struct {
	BaseURL string
	Model   string
	Client  *http.Client
	Timeout time.Duration
}

var tutorPrompt = template.Must(template.New("tutor").Parse(`You are a strict bilingual tutor. Evaluate the user's translation of the source sentence.

Direction: {{.Direction}}
Source: "{{.Source}}"
User: "{{.Answer}}"

RULES:
- The correct translation MUST be in {{.Target}}
- Output MUST follow the format exactly
- No extra paragraphs, no headings, no blank lines
- Do not add anything before "Verdict:"
- Verdict is CORRECT if meaning is faithful and grammatical enough to be understood.

OUTPUT FORMAT (EXACT):
Verdict: CORRECT or WRONG
Correct translation: <one sentence in {{.Target}}>
Feedback:
- <bullet 1>
- <bullet 2 (optional)>
`))

// Prompt renders the grading instructions for req.
func Prompt(req Request) string {
	data := struct{ Direction, Source, Answer, Target string }{
		Direction: "English → Italian",
		Source:    req.Source,
		Answer:    req.UserAnswer,
		Target:    "Italian",
	}
	if req.Direction == domain.DirectionIT {
		data.Direction, data.Target = "Italian → English", "English"
	}
	var b strings.Builder
	_ = tutorPrompt.Execute(&b, data)
	return b.String()
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Evaluate implements Evaluator.
func (o *Ollama) Evaluate(ctx context.Context, req Request) (*domain.Evaluation, error) {
	ctx, cancel := withTimeout(ctx, o.Timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:   o.Model,
		Prompt:  Prompt(req),
		Stream:  false,
		Options: map[string]any{"temperature": 0.1},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(o.BaseURL, "/")+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: ollama status %d", ErrUnavailable, resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	text := strings.TrimSpace(out.Response)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return &domain.Evaluation{Feedback: text, Provider: config.EvalOllama}, nil
}
