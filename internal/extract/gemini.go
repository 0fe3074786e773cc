package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"finboard/internal/core"
)

// geminiExtractor sends the document inline to Gemini and expects a
// strict JSON object back.
type geminiExtractor struct {
	client     *genai.Client
	model      string
	categories []core.Category
}

func newGeminiExtractor(ctx context.Context, model string, categories []core.Category) (*geminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &geminiExtractor{client: client, model: model, categories: categories}, nil
}

type geminiExpense struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Merchant    string  `json:"merchant"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

func (g *geminiExtractor) Extract(ctx context.Context, filename, mimeType string, data []byte) (core.Transaction, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: g.prompt()},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     data,
					},
				},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("gemini extraction: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return core.Transaction{}, fmt.Errorf("gemini extraction: empty response from model")
	}

	var parsed geminiExpense
	clean := cleanModelJSON(rawText)
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return core.Transaction{}, fmt.Errorf("gemini extraction: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	date, err := time.Parse("2006-01-02", parsed.Date)
	if err != nil {
		slog.WarnContext(ctx, "Gemini returned unparseable date, using today",
			"date", parsed.Date, "file", filename)
		date = time.Now()
	}

	txType := core.TransactionType(parsed.Type)
	if !txType.Valid() {
		txType = core.TypeExpense
	}

	return core.Transaction{
		Date:        date,
		Description: parsed.Description,
		Merchant:    parsed.Merchant,
		Category:    parsed.Category,
		Type:        txType,
		Amount:      parsed.Amount,
		Currency:    parsed.Currency,
	}, nil
}

func (g *geminiExtractor) prompt() string {
	var b strings.Builder
	b.WriteString("You are a receipt and invoice parser for a personal finance tracker.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Extract a single expense from the attached document.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no extra text).\n")
	b.WriteString("- Output one JSON object with these fields:\n")
	b.WriteString("  \"date\": string, ISO format \"YYYY-MM-DD\"\n")
	b.WriteString("  \"description\": string\n")
	b.WriteString("  \"merchant\": string or \"\"\n")
	b.WriteString("  \"category\": string (one of the predefined categories below)\n")
	b.WriteString("  \"type\": \"income\" or \"expense\"\n")
	b.WriteString("  \"amount\": number, always positive\n")
	b.WriteString("  \"currency\": string (e.g. \"USD\")\n\n")

	if len(g.categories) > 0 {
		b.WriteString("Use ONLY the following categories:\n")
		for _, cat := range g.categories {
			b.WriteString("  - " + cat.Name + "\n")
		}
		b.WriteString("If you are unsure, use \"Other\".\n\n")
	}

	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Do NOT use ```json or any Markdown.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")
	return b.String()
}

// cleanModelJSON strips Markdown fences when the model ignores the
// raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
