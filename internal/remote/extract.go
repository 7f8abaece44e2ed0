package remote

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// ExtractionRequest binds one transcript to the extraction instruction.
type ExtractionRequest struct {
	instruction string
	transcript  string
}

// NewExtractionRequest builds a request with the fixed Instruction.
func NewExtractionRequest(transcript string) ExtractionRequest {
	return ExtractionRequest{instruction: Instruction, transcript: transcript}
}

func (r ExtractionRequest) Instruction() string { return r.instruction }
func (r ExtractionRequest) Transcript() string  { return r.transcript }

func (r ExtractionRequest) messages() []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: r.instruction},
		{Role: openai.ChatMessageRoleUser, Content: r.transcript},
	}
}

// Extractor asks the language model to pull card fields out of a transcript.
type Extractor struct {
	cfg Config
}

// NewExtractor constructs an extraction client.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract returns the raw content of the first choice. Output shape is not
// validated here; an empty reply surfaces later as a malformed extraction.
func (e *Extractor) Extract(ctx context.Context, transcript string, credential string) (string, error) {
	if err := ValidateCredential(credential, e.cfg.CredentialPrefix); err != nil {
		return "", err
	}

	req := NewExtractionRequest(transcript)
	chat := openai.ChatCompletionRequest{
		Model:       e.cfg.ExtractionModel,
		Messages:    req.messages(),
		Temperature: e.cfg.Temperature,
	}
	if e.cfg.JSONMode {
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := e.cfg.newClient(credential).CreateChatCompletion(ctx, chat)
	if err != nil {
		return "", serviceError(ServiceExtraction, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
