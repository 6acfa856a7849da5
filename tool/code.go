//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/agentstudio/studio-go/codeexecutor"
)

// Tool construction errors, surfaced during compilation of tool nodes.
var (
	ErrToolMissingName         = errors.New("tool is missing a name")
	ErrToolMissingCode         = errors.New("tool is missing code")
	ErrToolLanguageUnsupported = errors.New("tool language is not supported")
)

// resultMarker separates the user code's stdout from the JSON-encoded
// return value in the harness output.
const resultMarker = "__STUDIO_RESULT__"

// CodeTool executes user-authored tool code through a CodeExecutor. The
// code must define a run function; its keyword arguments are filled from
// the model's JSON argument object and its return value becomes the tool
// result.
type CodeTool struct {
	declaration *Declaration
	language    string
	code        string
	executor    codeexecutor.CodeExecutor
}

// NewCodeTool creates a code tool. Only Python tool code is supported.
func NewCodeTool(
	name, description, language, code string,
	schema Schema, executor codeexecutor.CodeExecutor,
) (*CodeTool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrToolMissingName
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: %s", ErrToolMissingCode, name)
	}
	if language == "" {
		language = "python"
	}
	if lang := strings.ToLower(language); lang != "python" && lang != "python3" && lang != "py" {
		return nil, fmt.Errorf("%w: %s", ErrToolLanguageUnsupported, language)
	}
	return &CodeTool{
		declaration: &Declaration{
			Name:        name,
			Description: description,
			InputSchema: EnsureObjectSchema(schema),
		},
		language: "python",
		code:     code,
		executor: executor,
	}, nil
}

// Declaration implements the Tool interface.
func (t *CodeTool) Declaration() *Declaration {
	return t.declaration
}

// Call runs the harnessed tool code with the argument object on stdin and
// decodes the marked result line from stdout.
func (t *CodeTool) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	if _, err := decodeArgs(t.declaration.Name, jsonArgs); err != nil {
		return nil, err
	}
	result, err := t.executor.ExecuteCode(ctx, codeexecutor.CodeExecutionInput{
		ExecutionID: "tool_" + t.declaration.Name,
		CodeBlocks: []codeexecutor.CodeBlock{
			{Language: t.language, Code: t.harness()},
		},
		Stdin: string(jsonArgs),
	})
	if err != nil {
		return nil, fmt.Errorf("tool %s failed to execute: %w", t.declaration.Name, err)
	}
	if result.ExitCode != 0 {
		detail := strings.TrimSpace(result.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(result.Stdout)
		}
		return nil, fmt.Errorf("tool %s failed (exit code %d): %s",
			t.declaration.Name, result.ExitCode, detail)
	}
	return parseHarnessOutput(result.Stdout)
}

// harness wraps the user code so the run function is located, invoked with
// the decoded arguments and its return value emitted behind a marker.
func (t *CodeTool) harness() string {
	var sb strings.Builder
	sb.WriteString("import json as __studio_json\n")
	sb.WriteString("import sys as __studio_sys\n\n")
	sb.WriteString(t.code)
	sb.WriteString("\n\n")
	sb.WriteString("def __studio_invoke():\n")
	sb.WriteString("    raw = __studio_sys.stdin.read()\n")
	sb.WriteString("    args = __studio_json.loads(raw) if raw.strip() else {}\n")
	sb.WriteString("    fn = globals().get(\"run\")\n")
	sb.WriteString("    if not callable(fn):\n")
	sb.WriteString("        raise RuntimeError(\"tool has no callable run function\")\n")
	sb.WriteString("    result = fn(**args)\n")
	sb.WriteString("    __studio_sys.stdout.write(\"\\n" + resultMarker + "\" + __studio_json.dumps(result, default=str))\n\n")
	sb.WriteString("__studio_invoke()\n")
	return sb.String()
}

// parseHarnessOutput splits the marker line off the captured stdout. Output
// without a marker (user code that printed but returned nothing decodable)
// is passed through as a string.
func parseHarnessOutput(stdout string) (any, error) {
	idx := strings.LastIndex(stdout, resultMarker)
	if idx < 0 {
		return strings.TrimSpace(stdout), nil
	}
	encoded := stdout[idx+len(resultMarker):]
	var value any
	if err := json.Unmarshal([]byte(encoded), &value); err != nil {
		return nil, fmt.Errorf("tool result is not valid JSON: %w", err)
	}
	return value, nil
}
