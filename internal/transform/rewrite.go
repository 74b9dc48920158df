package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matnoble/mdeditor/internal/llm"
)

// ErrRewrite wraps provider failures during an AI rewrite.
var ErrRewrite = errors.New("AI rewrite failed")

// Mode selects the rewrite prompt.
type Mode int

const (
	// Polish fixes spelling, grammar and flow.
	Polish Mode = iota
	// Typeset fixes spacing and punctuation without changing wording.
	Typeset
)

func (m Mode) String() string {
	switch m {
	case Polish:
		return "polish"
	case Typeset:
		return "typeset"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

const polishPrompt = `You are a professional editor of articles and technical documentation.
Improve the Markdown text below.

Goals:
1. Fix typos, punctuation and grammar.
2. Make the writing clearer and more fluent in its own language.
3. Keep LaTeX formulas valid and wrapped in $ or $$.
4. Fix table and list indentation.
5. Return only the improved Markdown. No conversation, explanation or greeting.`

const typesetPrompt = `You are a professional typesetting tool. Typeset the Markdown text below.

Follow these rules strictly:
1. Put one space between CJK characters and Latin letters or digits ("React技术" becomes "React 技术").
2. Use full-width punctuation in CJK context and half-width punctuation in Latin context.
3. Repair broken Markdown syntax such as unclosed emphasis or wrong list indentation.
4. Keep LaTeX formulas valid.
5. Never change meaning, wording or tone. Only fix layout and typesetting.

Return the typeset Markdown directly, without a code fence and without any explanation.`

// DefaultTimeout bounds one rewrite request.
const DefaultTimeout = 60 * time.Second

// Rewriter sends the whole document to a language model and returns its
// replacement.
type Rewriter struct {
	provider llm.Provider
	model    string
	timeout  time.Duration
}

// RewriterOption configures a Rewriter.
type RewriterOption func(*Rewriter)

// WithModel overrides the provider's default model.
func WithModel(model string) RewriterOption {
	return func(r *Rewriter) { r.model = model }
}

// WithTimeout bounds each request. Zero keeps DefaultTimeout.
func WithTimeout(d time.Duration) RewriterOption {
	return func(r *Rewriter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRewriter creates a Rewriter. A nil provider means no API key is
// configured; every rewrite then fails with llm.ErrMissingAPIKey.
func NewRewriter(provider llm.Provider, opts ...RewriterOption) *Rewriter {
	r := &Rewriter{provider: provider, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Available reports whether a provider is configured.
func (r *Rewriter) Available() bool {
	return r != nil && r.provider != nil
}

// Rewrite returns the model's version of text. An unfinished or empty reply
// is an ErrRewrite, so a partial answer never replaces the document.
func (r *Rewriter) Rewrite(ctx context.Context, mode Mode, text string) (string, error) {
	if !r.Available() {
		return "", llm.ErrMissingAPIKey
	}

	prompt := polishPrompt
	if mode == Typeset {
		prompt = typesetPrompt
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: prompt},
			{Role: llm.RoleUser, Content: "Input:\n---\n" + text + "\n---"},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s via %s: %v", ErrRewrite, mode, r.provider.Name(), err)
	}

	if !resp.Finished() {
		return "", fmt.Errorf("%w: %s via %s: reply incomplete (finish reason %s)", ErrRewrite, mode, r.provider.Name(), resp.FinishReason)
	}

	out := strings.TrimSpace(resp.Content)
	if mode == Typeset {
		out = stripFence(out)
	}
	if out == "" {
		return "", fmt.Errorf("%w: %s via %s: empty reply", ErrRewrite, mode, r.provider.Name())
	}
	return out, nil
}

// stripFence removes a code fence the model wrapped around its answer.
func stripFence(s string) string {
	if rest, ok := strings.CutPrefix(s, "```markdown"); ok {
		s = strings.TrimLeft(rest, " \t\r\n")
	}
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = strings.TrimLeft(rest, " \t\r\n")
	}
	if rest, ok := strings.CutSuffix(s, "```"); ok {
		s = strings.TrimRight(rest, " \t\r\n")
	}
	return s
}
