package openai

import (
	"context"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/ai"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/errors"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/i18n"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

const EMBEDDING_BATCH_SIZE = 6

type Config struct {
	Token          string `toml:"token"`
	Endpoint       string `toml:"endpoint"`
	ChatModel      string `toml:"chat_model"`
	EmbeddingModel string `toml:"embedding_model"`
	Lang           string `toml:"lang"`
}

type Driver struct {
	client         *goopenai.Client
	chatModel      string
	embeddingModel string
	lang           string
}

func New(cfg Config) *Driver {
	conf := goopenai.DefaultConfig(cfg.Token)
	if cfg.Endpoint != "" {
		conf.BaseURL = cfg.Endpoint
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = goopenai.GPT4oMini
	}
	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = string(goopenai.SmallEmbedding3)
	}
	lang := cfg.Lang
	if lang == "" {
		lang = i18n.DEFAULT_LANG
	}
	return &Driver{
		client:         goopenai.NewClientWithConfig(conf),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		lang:           lang,
	}
}

func (d *Driver) Lang() string {
	return d.lang
}

var knownCategories = map[string]bool{
	types.CATEGORY_PROFILE_INFO:      true,
	types.CATEGORY_PROFILE_UPDATE:    true,
	types.CATEGORY_CERTIFICATE_ISSUE: true,
	types.CATEGORY_TICKET:            true,
	types.CATEGORY_GENERAL:           true,
}

func (d *Driver) Classify(ctx context.Context, query string, history []types.ChatMessage) (string, error) {
	messages := []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: ai.PROMPT_CLASSIFY},
	}
	for _, m := range history {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: query})

	resp, err := d.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       d.chatModel,
		Messages:    messages,
		Temperature: 0,
		MaxTokens:   8,
	})
	if err != nil {
		return "", errors.New("openai.Classify.CreateChatCompletion", i18n.ERROR_INTERNAL, err).
			Code(http.StatusServiceUnavailable).Kind(errors.KindExternalService)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	label := strings.ToLower(strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"'.`))
	if !knownCategories[label] {
		return "", nil
	}
	return label, nil
}

func (d *Driver) Generate(ctx context.Context, system string, history []types.ChatMessage) (string, error) {
	messages := []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: system},
	}
	for _, m := range history {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := d.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    d.chatModel,
		Messages: messages,
	})
	if err != nil {
		return "", errors.New("openai.Generate.CreateChatCompletion", i18n.ERROR_INTERNAL, err).
			Code(http.StatusServiceUnavailable).Kind(errors.KindExternalService)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai.Generate.EmptyChoices", i18n.ERROR_INTERNAL, nil).
			Code(http.StatusServiceUnavailable).Kind(errors.KindExternalService)
	}
	return resp.Choices[0].Message.Content, nil
}

func (d *Driver) Rephrase(ctx context.Context, query string, history []types.ChatMessage) (string, error) {
	messages := []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: ai.PROMPT_REPHRASE},
	}
	for _, m := range history {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: query})

	resp, err := d.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       d.chatModel,
		Messages:    messages,
		Temperature: 0,
	})
	if err != nil {
		return "", errors.New("openai.Rephrase.CreateChatCompletion", i18n.ERROR_INTERNAL, err).
			Code(http.StatusServiceUnavailable).Kind(errors.KindExternalService)
	}
	if len(resp.Choices) == 0 {
		return query, nil
	}
	rewritten := strings.TrimSpace(resp.Choices[0].Message.Content)
	if rewritten == "" {
		return query, nil
	}
	return rewritten, nil
}

func (d *Driver) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	result := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += EMBEDDING_BATCH_SIZE {
		end := start + EMBEDDING_BATCH_SIZE
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := d.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
			Model: goopenai.EmbeddingModel(d.embeddingModel),
			Input: texts[start:end],
		})
		if err != nil {
			return nil, errors.New("openai.Embed.CreateEmbeddings", i18n.ERROR_INTERNAL, err).
				Code(http.StatusServiceUnavailable).Kind(errors.KindExternalService)
		}

		for _, item := range resp.Data {
			vec := make([]float64, len(item.Embedding))
			for i, v := range item.Embedding {
				vec[i] = float64(v)
			}
			result = append(result, vec)
		}
	}
	return result, nil
}
