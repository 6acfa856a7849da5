//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package model

import (
	"errors"
	"strings"
)

// Connection holds provider credentials supplied with a run request.
// Secrets live only for the duration of the run and are never persisted.
type Connection struct {
	Provider     string `json:"provider"`
	APIKey       string `json:"api_key,omitempty"`
	BaseURL      string `json:"base_url,omitempty"`
	Organization string `json:"organization,omitempty"`
	Project      string `json:"project,omitempty"`
}

// ErrUnsupportedProvider reports a provider outside the supported set.
var ErrUnsupportedProvider = errors.New("unsupported model provider")

// Validate checks the connection can be used to build a client.
func (c Connection) Validate() error {
	switch strings.ToLower(c.Provider) {
	case "", "openai":
		return nil
	}
	return ErrUnsupportedProvider
}

// Redacted returns a copy safe for logging.
func (c Connection) Redacted() Connection {
	out := c
	if out.APIKey != "" {
		out.APIKey = "***"
	}
	return out
}
