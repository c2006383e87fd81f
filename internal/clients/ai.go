package clients

import (
	"github.com/vidmem/vidmem/internal/util"
	"github.com/vidmem/vidmem/pkg/ai"
	oll "github.com/vidmem/vidmem/pkg/ai/ollama"
	oai "github.com/vidmem/vidmem/pkg/ai/openai"
	"github.com/vidmem/vidmem/pkg/logger"
)

// NewAIClientFromEnv builds the AI client selected by AI_ADAPTER. The
// default adapter is the OpenAI-compatible client.
func NewAIClientFromEnv() ai.MemoryAIClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oll.NewMemoryOllamaClient(oll.NewMemoryOllamaClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			VisionModel:    util.GetEnv("AI_VISION_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_MAX_CONCURRENT", 15)),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		return client
	default:
		return oai.NewMemoryOpenAIClient(oai.NewMemoryOpenAIClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			VisionModel:    util.GetEnv("AI_VISION_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_MAX_CONCURRENT", 15)),
		})
	}
}
