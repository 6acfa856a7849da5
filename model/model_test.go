//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageConstructors(t *testing.T) {
	assert.Equal(t, Message{Role: RoleSystem, Content: "be brief"}, NewSystemMessage("be brief"))
	assert.Equal(t, Message{Role: RoleUser, Content: "hi"}, NewUserMessage("hi"))
	assert.Equal(t, Message{Role: RoleAssistant, Content: "hello"}, NewAssistantMessage("hello"))

	toolMsg := NewToolMessage("call_1", "adder", `{"sum": 5}`)
	assert.Equal(t, RoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolID)
	assert.Equal(t, "adder", toolMsg.ToolName)
}

func TestConnectionValidate(t *testing.T) {
	assert.NoError(t, Connection{}.Validate())
	assert.NoError(t, Connection{Provider: "openai"}.Validate())
	assert.NoError(t, Connection{Provider: "OpenAI"}.Validate())
	assert.ErrorIs(t, Connection{Provider: "anthropic"}.Validate(), ErrUnsupportedProvider)
}

func TestConnectionRedacted(t *testing.T) {
	conn := Connection{Provider: "openai", APIKey: "sk-secret", BaseURL: "https://api.example.com"}
	redacted := conn.Redacted()
	assert.Equal(t, "***", redacted.APIKey)
	assert.Equal(t, conn.BaseURL, redacted.BaseURL)
	assert.Equal(t, "sk-secret", conn.APIKey, "original is untouched.")
}
