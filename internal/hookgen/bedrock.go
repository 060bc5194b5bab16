package hookgen

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/bedrock"

	"github.com/hookscontent/hooks/internal/config"
)

const (
	defaultBedrockRegion = "us-east-1"
	defaultBedrockModel  = "anthropic.claude-3-haiku-20240307-v1:0"
)

// BedrockModel implements Model using AWS Bedrock.
type BedrockModel struct {
	llm     *bedrock.LLM
	modelID string
}

// NewBedrockModel loads AWS credentials from the default chain and builds a
// Bedrock runtime client for cfg.ModelID.
func NewBedrockModel(ctx context.Context, cfg config.BedrockConfig) (*BedrockModel, error) {
	if cfg.Region == "" {
		cfg.Region = defaultBedrockRegion
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultBedrockModel
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	llm, err := bedrock.New(
		bedrock.WithModel(cfg.ModelID),
		bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
	)
	if err != nil {
		return nil, fmt.Errorf("create bedrock llm: %w", err)
	}

	return &BedrockModel{llm: llm, modelID: cfg.ModelID}, nil
}

// GenerateText implements Model.
func (m *BedrockModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	answer, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt,
		llms.WithMaxTokens(1024),
		llms.WithTemperature(0.7),
	)
	if err != nil {
		return "", fmt.Errorf("bedrock generation: %w", err)
	}
	return answer, nil
}

// Name implements Model.
func (m *BedrockModel) Name() string {
	return "bedrock:" + m.modelID
}
