//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

// Package model defines the language model abstraction used by agent
// nodes: chat messages, tool call plumbing and a streaming generation
// interface.
package model

import (
	"context"
	"time"

	"github.com/agentstudio/studio-go/tool"
)

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// ToolID links a tool result message back to the call that produced it.
	ToolID   string `json:"tool_id,omitempty"`
	ToolName string `json:"tool_name,omitempty"`
	// ToolCalls holds the calls requested by an assistant message.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage creates a tool result message for a call ID.
func NewToolMessage(toolID, toolName, content string) Message {
	return Message{Role: RoleTool, ToolID: toolID, ToolName: toolName, Content: content}
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments []byte `json:"arguments"`
}

// GenerationConfig carries the tunables of one generation.
type GenerationConfig struct {
	// Stream requests incremental deltas ahead of the final response.
	Stream      bool     `json:"stream"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// Request is the input to GenerateContent.
type Request struct {
	Messages []Message           `json:"messages"`
	Tools    []*tool.Declaration `json:"tools,omitempty"`
	GenerationConfig
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ResponseError carries a generation failure through the response channel.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Error types used in ResponseError.
const (
	ErrorTypeAPIError    = "api_error"
	ErrorTypeStreamError = "stream_error"
)

// Response is one item on the generation channel. While streaming, partial
// responses carry Delta text; the last response has Done set and carries
// the full accumulated Message (including any tool calls).
type Response struct {
	ID        string         `json:"id"`
	Model     string         `json:"model,omitempty"`
	Created   int64          `json:"created,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Delta     string         `json:"delta,omitempty"`
	Done      bool           `json:"done"`
	IsPartial bool           `json:"is_partial"`
	Message   Message        `json:"message"`
	Usage     *Usage         `json:"usage,omitempty"`
	Error     *ResponseError `json:"error,omitempty"`
}

// Info describes a model.
type Info struct {
	Name string
}

// Model generates chat content. The returned channel is closed after the
// final response (or an error response) has been delivered.
type Model interface {
	Info() Info
	GenerateContent(ctx context.Context, request *Request) (<-chan *Response, error)
}
