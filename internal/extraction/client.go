package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const systemPrompt = `You read certificates of insurance (ACORD 25 and similar) and report their contents as JSON.

Return ONLY a JSON object with this shape:
{
  "holder_name": "<name of the insured party as printed>",
  "coverages": [
    {
      "coverage_type": "general_liability|automobile_liability|workers_compensation|umbrella|professional_liability|property|pollution_liability|liquor_liability|cyber",
      "limit_type": "per_occurrence|aggregate|combined_single_limit|statutory|per_person|per_accident",
      "limit_amount": <whole dollars, or null if not shown>,
      "expiration_date": "YYYY-MM-DD or null",
      "additional_insured": true/false or null if not determinable,
      "waiver_of_subrogation": true/false or null if not determinable
    }
  ]
}

Report one entry per coverage line on the certificate. Omit fields you cannot read rather than guessing. Do not include any text outside the JSON object.`

// Client extracts coverage facts from certificate documents via AWS Bedrock.
type Client struct {
	bedrock *bedrockruntime.Client
	modelID string
}

// NewClient builds an extraction client from the default AWS credential
// chain. modelID defaults to Claude 3 Sonnet when empty.
func NewClient(ctx context.Context, region, modelID string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	if modelID == "" {
		modelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	return &Client{
		bedrock: bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
	}, nil
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *documentSource `json:"source,omitempty"`
}

type documentSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type invokeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	System           string    `json:"system,omitempty"`
	Messages         []message `json:"messages"`
	Temperature      float64   `json:"temperature"`
}

type invokeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Extract sends the document to the model and parses the structured reply.
func (c *Client) Extract(ctx context.Context, doc []byte) (*Facts, error) {
	request := invokeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        4000,
		System:           systemPrompt,
		Messages: []message{
			{
				Role: "user",
				Content: []contentBlock{
					{
						Type: "document",
						Source: &documentSource{
							Type:      "base64",
							MediaType: "application/pdf",
							Data:      base64.StdEncoding.EncodeToString(doc),
						},
					},
					{Type: "text", Text: "Extract the coverage facts from this certificate of insurance."},
				},
			},
		},
		Temperature: 0,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshaling extraction request: %w", err)
	}

	output, err := c.bedrock.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return nil, fmt.Errorf("Bedrock API error: %w", err)
	}

	var response invokeResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("parsing Bedrock response: %w", err)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	log.Printf("[extraction.Client] extracted document (in: %d tokens, out: %d tokens)",
		response.Usage.InputTokens, response.Usage.OutputTokens)

	return ParseFacts(text)
}
