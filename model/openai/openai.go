//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

// Package openai implements the model.Model interface on the OpenAI chat
// completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/agentstudio/studio-go/log"
	"github.com/agentstudio/studio-go/model"
	"github.com/agentstudio/studio-go/tool"
)

const defaultChannelBufferSize = 256

// Model is an OpenAI-backed chat model.
type Model struct {
	client            openai.Client
	name              string
	channelBufferSize int
}

type options struct {
	apiKey            string
	baseURL           string
	organization      string
	project           string
	channelBufferSize int
	extraOptions      []openaiopt.RequestOption
}

// Option configures a Model.
type Option func(*options)

// WithAPIKey sets the API key. When unset, OPENAI_API_KEY is used.
func WithAPIKey(apiKey string) Option {
	return func(o *options) { o.apiKey = apiKey }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithOrganization sets the OpenAI organization header.
func WithOrganization(org string) Option {
	return func(o *options) { o.organization = org }
}

// WithProject sets the OpenAI project header.
func WithProject(project string) Option {
	return func(o *options) { o.project = project }
}

// WithChannelBufferSize sets the response channel buffer.
func WithChannelBufferSize(size int) Option {
	return func(o *options) { o.channelBufferSize = size }
}

// WithExtraOptions appends raw request options to the client.
func WithExtraOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) { o.extraOptions = append(o.extraOptions, opts...) }
}

// New creates an OpenAI model client.
func New(name string, opts ...Option) *Model {
	o := options{channelBufferSize: defaultChannelBufferSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.apiKey == "" {
		o.apiKey = os.Getenv("OPENAI_API_KEY")
	}

	var clientOpts []openaiopt.RequestOption
	if o.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.baseURL))
	}
	if o.organization != "" {
		clientOpts = append(clientOpts, openaiopt.WithOrganization(o.organization))
	}
	if o.project != "" {
		clientOpts = append(clientOpts, openaiopt.WithProject(o.project))
	}
	clientOpts = append(clientOpts, o.extraOptions...)

	return &Model{
		client:            openai.NewClient(clientOpts...),
		name:              name,
		channelBufferSize: o.channelBufferSize,
	}
}

// NewFromConnection builds a model from run-supplied connection settings.
func NewFromConnection(conn model.Connection, name string, opts ...Option) (*Model, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	merged := []Option{
		WithAPIKey(conn.APIKey),
		WithBaseURL(conn.BaseURL),
		WithOrganization(conn.Organization),
		WithProject(conn.Project),
	}
	merged = append(merged, opts...)
	return New(name, merged...), nil
}

// Info implements the model.Model interface.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.name}
}

// GenerateContent implements the model.Model interface.
func (m *Model) GenerateContent(
	ctx context.Context, request *model.Request,
) (<-chan *model.Response, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}
	chatRequest := m.buildChatRequest(request)
	responseChan := make(chan *model.Response, m.channelBufferSize)
	go func() {
		defer close(responseChan)
		if request.Stream {
			m.handleStreamingResponse(ctx, chatRequest, responseChan)
			return
		}
		m.handleResponse(ctx, chatRequest, responseChan)
	}()
	return responseChan, nil
}

func (m *Model) buildChatRequest(request *model.Request) openai.ChatCompletionNewParams {
	chatRequest := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.name),
		Messages: convertMessages(request.Messages),
		Tools:    convertTools(request.Tools),
	}
	if request.Temperature != nil {
		chatRequest.Temperature = openai.Float(*request.Temperature)
	}
	if request.MaxTokens != nil {
		chatRequest.MaxCompletionTokens = openai.Int(int64(*request.MaxTokens))
	}
	return chatRequest
}

func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			assistantMsg := &openai.ChatCompletionAssistantMessageParam{
				ToolCalls: convertToolCalls(msg.ToolCalls),
			}
			if msg.Content != "" {
				assistantMsg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfAssistant: assistantMsg,
			})
		case model.RoleTool:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
					ToolCallID: msg.ToolID,
				},
			})
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

func convertToolCalls(toolCalls []model.ToolCall) []openai.ChatCompletionMessageToolCallParam {
	var result []openai.ChatCompletionMessageToolCallParam
	for _, toolCall := range toolCalls {
		result = append(result, openai.ChatCompletionMessageToolCallParam{
			ID: toolCall.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      toolCall.Name,
				Arguments: string(toolCall.Arguments),
			},
		})
	}
	return result
}

func convertTools(declarations []*tool.Declaration) []openai.ChatCompletionToolParam {
	var result []openai.ChatCompletionToolParam
	for _, declaration := range declarations {
		schemaBytes, err := json.Marshal(tool.EnsureObjectSchema(declaration.InputSchema))
		if err != nil {
			log.Errorf("failed to marshal tool schema for %s: %v", declaration.Name, err)
			continue
		}
		var parameters shared.FunctionParameters
		if err := json.Unmarshal(schemaBytes, &parameters); err != nil {
			log.Errorf("failed to unmarshal tool schema for %s: %v", declaration.Name, err)
			continue
		}
		result = append(result, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        declaration.Name,
				Description: openai.String(declaration.Description),
				Parameters:  parameters,
			},
		})
	}
	return result
}

func (m *Model) handleResponse(
	ctx context.Context,
	chatRequest openai.ChatCompletionNewParams,
	responseChan chan<- *model.Response,
) {
	completion, err := m.client.Chat.Completions.New(ctx, chatRequest)
	if err != nil {
		sendResponse(ctx, responseChan, errorResponse(err, model.ErrorTypeAPIError))
		return
	}
	response := &model.Response{
		ID:        completion.ID,
		Model:     completion.Model,
		Created:   completion.Created,
		Timestamp: time.Now(),
		Done:      true,
		Usage: &model.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}
	if len(completion.Choices) > 0 {
		msg := completion.Choices[0].Message
		response.Message = model.Message{
			Role:      model.RoleAssistant,
			Content:   msg.Content,
			ToolCalls: messageToolCalls(msg),
		}
	}
	sendResponse(ctx, responseChan, response)
}

func (m *Model) handleStreamingResponse(
	ctx context.Context,
	chatRequest openai.ChatCompletionNewParams,
	responseChan chan<- *model.Response,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, chatRequest)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		partial := &model.Response{
			ID:        chunk.ID,
			Model:     chunk.Model,
			Created:   chunk.Created,
			Timestamp: time.Now(),
			Delta:     delta,
			IsPartial: true,
			Message:   model.Message{Role: model.RoleAssistant, Content: delta},
		}
		if !sendResponse(ctx, responseChan, partial) {
			return
		}
	}
	if err := stream.Err(); err != nil {
		sendResponse(ctx, responseChan, errorResponse(err, model.ErrorTypeStreamError))
		return
	}

	final := &model.Response{
		ID:        acc.ID,
		Model:     acc.Model,
		Created:   acc.Created,
		Timestamp: time.Now(),
		Done:      true,
	}
	if acc.Usage.TotalTokens > 0 {
		final.Usage = &model.Usage{
			PromptTokens:     int(acc.Usage.PromptTokens),
			CompletionTokens: int(acc.Usage.CompletionTokens),
			TotalTokens:      int(acc.Usage.TotalTokens),
		}
	}
	if len(acc.Choices) > 0 {
		msg := acc.Choices[0].Message
		final.Message = model.Message{
			Role:      model.RoleAssistant,
			Content:   msg.Content,
			ToolCalls: messageToolCalls(msg),
		}
	}
	sendResponse(ctx, responseChan, final)
}

// messageToolCalls converts an API message's tool calls, skipping the
// empty placeholder entries the accumulator can produce for sparse
// indices.
func messageToolCalls(msg openai.ChatCompletionMessage) []model.ToolCall {
	var result []model.ToolCall
	for i, toolCall := range msg.ToolCalls {
		if toolCall.ID == "" && toolCall.Function.Name == "" {
			continue
		}
		id := toolCall.ID
		if id == "" {
			// Some providers omit the call ID; synthesize a stable one so
			// the tool result can still be paired with the call.
			id = "auto_call_" + strconv.Itoa(i)
		}
		result = append(result, model.ToolCall{
			ID:        id,
			Name:      toolCall.Function.Name,
			Arguments: []byte(toolCall.Function.Arguments),
		})
	}
	return result
}

func errorResponse(err error, errorType string) *model.Response {
	return &model.Response{
		Timestamp: time.Now(),
		Done:      true,
		Error: &model.ResponseError{
			Message: err.Error(),
			Type:    errorType,
		},
	}
}

func sendResponse(ctx context.Context, ch chan<- *model.Response, response *model.Response) bool {
	select {
	case ch <- response:
		return true
	case <-ctx.Done():
		return false
	}
}
