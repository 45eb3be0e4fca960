package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/iamwavecut/masterbot/internal/adapters"
	"github.com/iamwavecut/masterbot/internal/adapters/llm"
)

type API struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *log.Entry
}

const DefaultModel = "gemini-2.5-flash-lite"

func NewGemini(apiKey, model string, logger *log.Entry) adapters.LLM {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		logger.Fatalf("Error creating client: %v", err)
	}
	api := &API{
		client: client,
		logger: logger,
		model:  client.GenerativeModel(model),
	}
	api.WithSafetySettings(nil)
	api.WithParameters(nil)
	return api
}

func (g *API) WithModel(modelName string) adapters.LLM {
	if modelName == "" {
		modelName = DefaultModel
	}
	g.model = g.client.GenerativeModel(modelName)
	return g
}

func (g *API) WithParameters(parameters *llm.GenerationParameters) adapters.LLM {
	if parameters == nil || (parameters == &llm.GenerationParameters{}) {
		parameters = &llm.GenerationParameters{
			Temperature:      0.85,
			TopK:             40,
			TopP:             0.95,
			MaxOutputTokens:  300,
			ResponseMIMEType: "text/plain",
		}
	}

	g.model.SetTemperature(parameters.Temperature)
	g.model.SetTopK(parameters.TopK)
	g.model.SetTopP(parameters.TopP)
	g.model.SetMaxOutputTokens(int32(parameters.MaxOutputTokens))
	g.model.ResponseMIMEType = parameters.ResponseMIMEType

	return g
}

func (g *API) WithSafetySettings(safetySettings []*genai.SafetySetting) *API {
	if len(safetySettings) == 0 {
		safetySettings = []*genai.SafetySetting{
			{
				Category:  genai.HarmCategoryHarassment,
				Threshold: genai.HarmBlockNone,
			},
			{
				Category:  genai.HarmCategoryHateSpeech,
				Threshold: genai.HarmBlockNone,
			},
			{
				Category:  genai.HarmCategoryDangerousContent,
				Threshold: genai.HarmBlockNone,
			},
		}
	}
	g.model.SafetySettings = safetySettings
	return g
}

func (g *API) WithSystemPrompt(prompt string) adapters.LLM {
	g.model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(prompt)},
	}
	return g
}

func (g *API) ChatCompletion(ctx context.Context, messages []llm.ChatCompletionMessage) (llm.ChatCompletionResponse, error) {
	if len(messages) == 0 {
		return llm.ChatCompletionResponse{}, fmt.Errorf("no messages to complete")
	}

	session := g.model.StartChat()
	session.History = []*genai.Content{}

	lastMessage, messages := messages[len(messages)-1], messages[:len(messages)-1]

	backupGlobalInstruction := g.model.SystemInstruction
	for _, message := range messages {
		if message.Role == llm.RoleSystem {
			g.model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(message.Content)},
			}
			continue
		}
		session.History = append(session.History, &genai.Content{
			Parts: []genai.Part{genai.Text(message.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(lastMessage.Content))
	if err != nil {
		return llm.ChatCompletionResponse{}, err
	}
	g.model.SystemInstruction = backupGlobalInstruction

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return llm.ChatCompletionResponse{}, nil
	}

	response := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		response += fmt.Sprintf("%v", part)
	}

	return llm.ChatCompletionResponse{
		Choices: []llm.ChatCompletionChoice{{Message: llm.ChatCompletionMessage{Content: response}}},
	}, nil
}
