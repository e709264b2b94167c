package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/vishwawinit/nfpc-1-sub001/config"
)

// NewChatModel builds the chat model used by the summarizer and visualizer.
// All supported providers speak the OpenAI chat-completions format; the
// provider setting only picks sensible defaults for the base URL.
func NewChatModel(ctx context.Context, cfg config.Config) (model.ChatModel, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.ModelName,
		Timeout: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %v", err)
	}
	return chatModel, nil
}
