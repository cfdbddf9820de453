// Package translate localizes outbound message text.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Translator renders text in the target language code (e.g. "hi", "ta").
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Noop returns the text unchanged.
type Noop struct{}

func (Noop) Translate(_ context.Context, text, _ string) (string, error) {
	return text, nil
}

// HTTPTranslator talks to a LibreTranslate-compatible /translate endpoint.
type HTTPTranslator struct {
	baseURL string
	timeout time.Duration
}

func NewHTTPTranslator(baseURL string, timeout time.Duration) *HTTPTranslator {
	return &HTTPTranslator{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

func (t *HTTPTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	if IsSourceLanguage(target) || strings.TrimSpace(text) == "" {
		return text, nil
	}

	agent := fiber.Post(t.baseURL + "/translate").
		JSON(translateRequest{Q: text, Source: "en", Target: target, Format: "text"}).
		Timeout(timeoutFor(ctx, t.timeout))

	var resp translateResponse
	code, _, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return "", fmt.Errorf("translate to %s: %w", target, errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return "", fmt.Errorf("translate to %s: status %d %s", target, code, resp.Error)
	}
	return resp.TranslatedText, nil
}

// IsSourceLanguage reports whether no translation is needed for lang
func IsSourceLanguage(lang string) bool {
	return lang == "" || strings.EqualFold(lang, "en")
}

// OrOriginal translates text and falls back to the original on any failure
func OrOriginal(ctx context.Context, tr Translator, text, target string) string {
	if tr == nil || IsSourceLanguage(target) {
		return text
	}
	out, err := tr.Translate(ctx, text, target)
	if err != nil || out == "" {
		return text
	}
	return out
}

func timeoutFor(ctx context.Context, fallback time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left > 0 && left < fallback {
			return left
		}
	}
	return fallback
}
