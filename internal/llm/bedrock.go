package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const (
	// DefaultBedrockModel is the default Titan text embedding model.
	DefaultBedrockModel = "amazon.titan-embed-text-v2:0"

	// DefaultBedrockDimension is the output dimension for Titan v2.
	DefaultBedrockDimension = 1024
)

// BedrockEmbedder generates embeddings via the AWS Bedrock runtime.
// Credentials and region come from the standard AWS environment.
type BedrockEmbedder struct {
	client    *bedrockruntime.Client
	model     string
	dimension int
}

// Compile-time check that BedrockEmbedder implements Embedder.
var _ Embedder = (*BedrockEmbedder)(nil)

// NewBedrockEmbedder creates a Bedrock embedding client.
// If model is empty, uses DefaultBedrockModel (Titan v2).
// If expectedDimension is 0, uses DefaultBedrockDimension (1024).
func NewBedrockEmbedder(ctx context.Context, model string, expectedDimension int) (*BedrockEmbedder, error) {
	if model == "" {
		model = DefaultBedrockModel
	}
	if expectedDimension == 0 {
		expectedDimension = DefaultBedrockDimension
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &BedrockEmbedder{
		client:    bedrockruntime.NewFromConfig(awsCfg),
		model:     model,
		dimension: expectedDimension,
	}, nil
}

// Model returns the configured embedding model name.
func (b *BedrockEmbedder) Model() string {
	return b.model
}

// Dimension returns the expected embedding dimension.
func (b *BedrockEmbedder) Dimension() int {
	return b.dimension
}

// titanRequest is the InvokeModel body for Titan embedding models.
type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
}

// titanResponse is the InvokeModel response body.
type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// Embed generates an embedding vector for the given text.
func (b *BedrockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanRequest{
		InputText:  truncateForEmbed(text),
		Dimensions: b.dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke model: %w", err)
	}

	var resp titanResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(resp.Embedding) != b.dimension {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d", len(resp.Embedding), b.dimension)
	}
	return resp.Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts. Titan models take
// one input per invocation, so the batch is sequential.
func (b *BedrockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := b.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed %d: %w", i, err)
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}
