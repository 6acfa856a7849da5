//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstudio/studio-go/model"
	"github.com/agentstudio/studio-go/tool"
)

func TestNewFromConnection(t *testing.T) {
	m, err := NewFromConnection(model.Connection{
		Provider: "openai",
		APIKey:   "sk-test",
	}, "gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", m.Info().Name)

	_, err = NewFromConnection(model.Connection{Provider: "other"}, "gpt-4o-mini")
	assert.ErrorIs(t, err, model.ErrUnsupportedProvider)
}

func TestBuildChatRequest(t *testing.T) {
	m := New("gpt-4o-mini", WithAPIKey("sk-test"))
	temperature := 0.2
	maxTokens := 128
	request := &model.Request{
		Messages: []model.Message{
			model.NewSystemMessage("instructions"),
			model.NewUserMessage("hello"),
			{
				Role: model.RoleAssistant,
				ToolCalls: []model.ToolCall{
					{ID: "call_1", Name: "adder", Arguments: []byte(`{"a":1}`)},
				},
			},
			model.NewToolMessage("call_1", "adder", `{"sum":1}`),
		},
		Tools: []*tool.Declaration{
			{Name: "adder", Description: "adds numbers"},
		},
		GenerationConfig: model.GenerationConfig{
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		},
	}

	chatRequest := m.buildChatRequest(request)
	assert.Equal(t, "gpt-4o-mini", string(chatRequest.Model))
	require.Len(t, chatRequest.Messages, 4)
	assert.NotNil(t, chatRequest.Messages[0].OfSystem)
	assert.NotNil(t, chatRequest.Messages[1].OfUser)
	require.NotNil(t, chatRequest.Messages[2].OfAssistant)
	require.Len(t, chatRequest.Messages[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "call_1", chatRequest.Messages[2].OfAssistant.ToolCalls[0].ID)
	require.NotNil(t, chatRequest.Messages[3].OfTool)
	assert.Equal(t, "call_1", chatRequest.Messages[3].OfTool.ToolCallID)

	require.Len(t, chatRequest.Tools, 1)
	assert.Equal(t, "adder", chatRequest.Tools[0].Function.Name)
	assert.Equal(t, 0.2, chatRequest.Temperature.Value)
	assert.Equal(t, int64(128), chatRequest.MaxCompletionTokens.Value)
}

func TestGenerateContentNilRequest(t *testing.T) {
	m := New("gpt-4o-mini", WithAPIKey("sk-test"))
	_, err := m.GenerateContent(t.Context(), nil)
	assert.Error(t, err)
}
