package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"automark_backend/internals/configs"
	"automark_backend/internals/helpers/httpx"
	"automark_backend/internals/helpers/pdfdoc"
)

/* ===================== Wire types (generateContent) ===================== */

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

/* ===================== Gemini grader ===================== */

type GeminiGrader struct {
	cfg    configs.GradingConfig
	client *httpx.Client
	files  Opener
	now    func() time.Time
}

func NewGeminiGrader(cfg configs.GradingConfig, client *httpx.Client, files Opener) *GeminiGrader {
	return &GeminiGrader{cfg: cfg, client: client, files: files, now: time.Now}
}

// Grade mengunduh rubric + jawaban lalu memanggil model sekali.
func (g *GeminiGrader) Grade(ctx context.Context, rubricURL, answerURL string) (Result, error) {
	res := Result{Model: g.cfg.Model, Mode: g.mode()}
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return res, ErrNoAPIKey
	}

	rubric, err := g.files.Open(ctx, rubricURL)
	if err != nil {
		return res, fmt.Errorf("unduh rubric: %w", err)
	}
	answer, err := g.files.Open(ctx, answerURL)
	if err != nil {
		return res, fmt.Errorf("unduh lembar jawaban: %w", err)
	}

	parts, err := g.buildParts(rubric, answer)
	if err != nil {
		return res, err
	}

	started := g.now()
	text, attempts, err := g.generate(ctx, parts)
	res.Attempts = attempts
	res.Duration = g.now().Sub(started)
	if err != nil {
		return res, err
	}
	res.Grade = text
	log.Printf("[GRADING] %s/%s selesai dalam %s (%d percobaan)", res.Model, res.Mode, res.Duration.Round(time.Millisecond), attempts)
	return res, nil
}

func (g *GeminiGrader) mode() string {
	if g.cfg.Mode == configs.GradingModeExtracted {
		return configs.GradingModeExtracted
	}
	return configs.GradingModeInline
}

func (g *GeminiGrader) buildParts(rubric, answer []byte) ([]part, error) {
	parts := []part{{Text: GradingPrompt}}

	if g.mode() == configs.GradingModeExtracted {
		rubricText, err := pdfdoc.ExtractText(rubric)
		if err != nil {
			return nil, fmt.Errorf("ekstrak rubric: %w", err)
		}
		pages, err := pdfdoc.Rasterize(answer)
		if err != nil {
			return nil, fmt.Errorf("render lembar jawaban: %w", err)
		}
		parts = append(parts, part{Text: rubricLabel + "\n" + rubricText}, part{Text: answerLabel})
		for _, p := range pages {
			parts = append(parts, part{InlineData: &inlineData{MimeType: "image/jpeg", Data: base64.StdEncoding.EncodeToString(p)}})
		}
		return parts, nil
	}

	return append(parts,
		part{Text: rubricLabel},
		part{InlineData: &inlineData{MimeType: "application/pdf", Data: base64.StdEncoding.EncodeToString(rubric)}},
		part{Text: answerLabel},
		part{InlineData: &inlineData{MimeType: "application/pdf", Data: base64.StdEncoding.EncodeToString(answer)}},
	), nil
}

func (g *GeminiGrader) endpoint() string {
	base := strings.TrimRight(g.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/models/%s:generateContent", base, url.PathEscape(g.cfg.Model))
}

func (g *GeminiGrader) generate(ctx context.Context, parts []part) (string, int, error) {
	body, err := sonic.Marshal(generateRequest{Contents: []content{{Role: "user", Parts: parts}}})
	if err != nil {
		return "", 0, fmt.Errorf("encode request: %w", err)
	}

	attempts := 0
	resp, err := g.client.Do(ctx, "gemini generateContent", func(ctx context.Context) (*http.Request, error) {
		attempts++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", g.cfg.APIKey)
		return req, nil
	})
	if err != nil {
		return "", attempts, fmt.Errorf("panggil model: %w", err)
	}

	var out generateResponse
	if err := sonic.Unmarshal(resp.Body, &out); err != nil {
		return "", attempts, fmt.Errorf("decode response: %w", err)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", attempts, fmt.Errorf("prompt diblokir: %s", out.PromptFeedback.BlockReason)
	}

	var sb strings.Builder
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", attempts, ErrEmptyResponse
	}
	return text, attempts, nil
}
