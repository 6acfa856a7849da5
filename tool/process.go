//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/agentstudio/studio-go/process"
)

const defaultOutputLines = 50

// NewProcessTools builds the long-running process tools backed by a shared
// process manager: start_process, stop_process, get_process_output and
// list_processes. Commands run with the workspace root as working
// directory.
func NewProcessTools(runID, workspaceRoot string, manager *process.Manager) []CallableTool {
	return []CallableTool{
		NewFunctionTool(
			"start_process",
			"Start a long-running background process in the workspace.",
			Schema{
				"type": "object",
				"properties": map[string]any{
					"command": map[string]any{"type": "string", "description": "Shell command to run."},
					"name":    map[string]any{"type": "string", "description": "Short label for the process."},
				},
				"required": []any{"command", "name"},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				command, _ := args["command"].(string)
				name, _ := args["name"].(string)
				if strings.TrimSpace(command) == "" {
					return nil, fmt.Errorf("start_process: command is required")
				}
				if strings.TrimSpace(name) == "" {
					name = "process"
				}
				processID := name + "-" + uuid.NewString()[:8]
				handle, err := manager.StartInDir(
					runID, processID, name, workspaceRoot,
					[]string{"sh", "-c", command},
				)
				if err != nil {
					return nil, err
				}
				return map[string]any{"process_id": handle.ProcessID}, nil
			},
		),
		NewFunctionTool(
			"stop_process",
			"Stop a background process started earlier in this run.",
			Schema{
				"type": "object",
				"properties": map[string]any{
					"process_id": map[string]any{"type": "string"},
				},
				"required": []any{"process_id"},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				processID, _ := args["process_id"].(string)
				stopped, exitCode := manager.Stop(runID, processID)
				result := map[string]any{"stopped": stopped}
				if exitCode != nil {
					result["exit_code"] = *exitCode
				}
				return result, nil
			},
		),
		NewFunctionTool(
			"get_process_output",
			"Read the recent stdout and stderr of a background process.",
			Schema{
				"type": "object",
				"properties": map[string]any{
					"process_id": map[string]any{"type": "string"},
					"lines":      map[string]any{"type": "integer", "description": "Number of trailing lines per stream."},
				},
				"required": []any{"process_id"},
			},
			func(_ context.Context, args map[string]any) (any, error) {
				processID, _ := args["process_id"].(string)
				lines := intArg(args, "lines", defaultOutputLines)
				if lines <= 0 {
					lines = defaultOutputLines
				}
				output, err := manager.GetOutput(runID, processID, lines)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"stdout":  output.Stdout,
					"stderr":  output.Stderr,
					"running": output.Running,
				}, nil
			},
		),
		NewFunctionTool(
			"list_processes",
			"List the background processes started in this run.",
			Schema{"type": "object", "properties": map[string]any{}},
			func(_ context.Context, _ map[string]any) (any, error) {
				handles := manager.List(runID)
				processes := make([]any, 0, len(handles))
				for _, handle := range handles {
					processes = append(processes, map[string]any{
						"process_id": handle.ProcessID,
						"name":       handle.Name,
						"command":    handle.Command,
						"running":    handle.IsRunning(),
					})
				}
				return map[string]any{"processes": processes}, nil
			},
		),
	}
}
