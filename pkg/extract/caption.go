package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidmem/vidmem/pkg/ai"
	"github.com/vidmem/vidmem/pkg/clip"
)

type captionResponse struct {
	Statements []string `json:"statements" jsonschema_description:"Self-contained memory statements describing the clip"`
}

// AICaptionGenerator turns clip media into memory statements in two model
// calls: a vision narration of the clip, then a structured extraction of
// statements that reference people by their placeholder tokens.
type AICaptionGenerator struct {
	aiClient ai.MemoryAIClient
}

// NewAICaptionGenerator creates a caption generator backed by the given AI
// client.
func NewAICaptionGenerator(aiClient ai.MemoryAIClient) *AICaptionGenerator {
	return &AICaptionGenerator{aiClient: aiClient}
}

// GenerateCaptions narrates the clip and distills the narration into
// statements. Tokens not present in placeholders are stripped from the
// result rather than propagated into the graph.
func (g *AICaptionGenerator) GenerateCaptions(
	ctx context.Context,
	c clip.Clip,
	media ai.ClipMedia,
	placeholders []string,
) ([]string, error) {
	narration, err := g.aiClient.GenerateClipDescription(ctx, ai.NarratePrompt, media)
	if err != nil {
		return nil, fmt.Errorf("failed to narrate clip %d: %w", c.ID, err)
	}

	placeholderList := "(none)"
	if len(placeholders) > 0 {
		placeholderList = strings.Join(placeholders, ", ")
	}

	prompt := fmt.Sprintf(ai.CaptionPrompt, placeholderList, narration)

	var res captionResponse
	err = g.aiClient.GenerateCompletionWithFormat(
		ctx,
		"clip_statements",
		"Memory statements extracted from a video clip narration",
		prompt,
		&res,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to extract statements for clip %d: %w", c.ID, err)
	}

	known := make(map[string]struct{}, len(placeholders))
	for _, p := range placeholders {
		known[p] = struct{}{}
	}

	out := make([]string, 0, len(res.Statements))
	for _, s := range res.Statements {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, stripUnknownTokens(s, known))
	}
	return out, nil
}

// stripUnknownTokens removes placeholder-shaped tokens the model invented.
func stripUnknownTokens(s string, known map[string]struct{}) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '<' {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := strings.IndexByte(s[i:], '>')
		if end < 0 {
			b.WriteString(s[i:])
			break
		}
		token := s[i : i+end+1]
		if _, ok := known[token]; ok {
			b.WriteString(token)
		} else {
			b.WriteString("someone")
		}
		i += end + 1
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
