//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrPathOutsideWorkspace reports a path that escapes the workspace root.
var ErrPathOutsideWorkspace = errors.New("path outside workspace")

const (
	defaultListMaxDepth   = 6
	defaultListMaxEntries = 500
)

// NewWorkspaceTools returns the built-in file tools scoped to a run
// workspace: list_workspace, read_file, write_file and delete_file. All
// paths are relative to root and may not escape it.
func NewWorkspaceTools(root string) ([]CallableTool, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	ws := &workspace{root: abs}
	return []CallableTool{
		NewFunctionTool(
			"list_workspace",
			"List files in the workspace. Paths are relative to the workspace root.",
			Schema{
				"type": "object",
				"properties": map[string]any{
					"path":        map[string]any{"type": "string"},
					"max_depth":   map[string]any{"type": "integer", "minimum": 0, "maximum": 20},
					"max_entries": map[string]any{"type": "integer", "minimum": 1, "maximum": 5000},
				},
				"additionalProperties": false,
			},
			ws.listFiles,
		),
		NewFunctionTool(
			"read_file",
			"Read a file from the workspace. Paths are relative to the workspace root.",
			Schema{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string"},
				},
				"required":             []any{"path"},
				"additionalProperties": false,
			},
			ws.readFile,
		),
		NewFunctionTool(
			"write_file",
			"Create or overwrite a file in the workspace. Paths are relative to the workspace root.",
			Schema{
				"type": "object",
				"properties": map[string]any{
					"path":    map[string]any{"type": "string"},
					"content": map[string]any{"type": "string"},
					"mode":    map[string]any{"type": "string", "enum": []any{"overwrite", "append"}},
				},
				"required":             []any{"path", "content"},
				"additionalProperties": false,
			},
			ws.writeFile,
		),
		NewFunctionTool(
			"delete_file",
			"Delete a file or directory in the workspace. Paths are relative to the workspace root.",
			Schema{
				"type": "object",
				"properties": map[string]any{
					"path":      map[string]any{"type": "string"},
					"recursive": map[string]any{"type": "boolean"},
				},
				"required":             []any{"path"},
				"additionalProperties": false,
			},
			ws.deletePath,
		),
	}, nil
}

type workspace struct {
	root string
}

// resolve joins a relative path onto the root and rejects anything that
// escapes it after cleaning.
func (w *workspace) resolve(path string, allowRoot bool) (string, error) {
	trimmed := strings.TrimLeft(strings.TrimSpace(path), "/\\")
	if trimmed == "" {
		if allowRoot {
			return w.root, nil
		}
		return "", errors.New("path is required")
	}
	target := filepath.Clean(filepath.Join(w.root, trimmed))
	if target != w.root && !strings.HasPrefix(target, w.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideWorkspace, path)
	}
	return target, nil
}

func (w *workspace) rel(target string) string {
	rel, err := filepath.Rel(w.root, target)
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}

func (w *workspace) listFiles(_ context.Context, args map[string]any) (any, error) {
	path, _ := args["path"].(string)
	maxDepth := intArg(args, "max_depth", defaultListMaxDepth)
	maxEntries := intArg(args, "max_entries", defaultListMaxEntries)

	base, err := w.resolve(path, true)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(base)
	if os.IsNotExist(err) {
		return map[string]any{"entries": []string{}, "truncated": false, "missing": true}, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return map[string]any{"entries": []string{w.rel(base)}, "truncated": false}, nil
	}

	var entries []string
	truncated := false
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == base {
			return nil
		}
		rel := w.rel(p)
		if strings.Count(rel, "/") >= maxDepth {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if len(entries) >= maxEntries {
			truncated = true
			return fs.SkipAll
		}
		if d.IsDir() {
			entries = append(entries, rel+"/")
		} else {
			entries = append(entries, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	return map[string]any{"entries": entries, "truncated": truncated}, nil
}

func (w *workspace) readFile(_ context.Context, args map[string]any) (any, error) {
	path, _ := args["path"].(string)
	target, err := w.resolve(path, false)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("path is not a file: %s", path)
	}
	content, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": w.rel(target), "content": string(content)}, nil
}

func (w *workspace) writeFile(_ context.Context, args map[string]any) (any, error) {
	path, _ := args["path"].(string)
	content, _ := args["content"].(string)
	mode, _ := args["mode"].(string)
	if mode == "" {
		mode = "overwrite"
	}
	if mode != "overwrite" && mode != "append" {
		return nil, fmt.Errorf("invalid write mode: %s", mode)
	}
	target, err := w.resolve(path, false)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}
	if mode == "append" {
		f, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return nil, err
		}
	} else {
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return nil, err
		}
	}
	return map[string]any{"path": w.rel(target), "bytes": len(content)}, nil
}

func (w *workspace) deletePath(_ context.Context, args map[string]any) (any, error) {
	path, _ := args["path"].(string)
	recursive, _ := args["recursive"].(bool)
	target, err := w.resolve(path, false)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return map[string]any{"path": w.rel(target), "deleted": false}, nil
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		if !recursive {
			return nil, fmt.Errorf("path is a directory: %s", path)
		}
		if err := os.RemoveAll(target); err != nil {
			return nil, err
		}
	} else if err := os.Remove(target); err != nil {
		return nil, err
	}
	return map[string]any{"path": w.rel(target), "deleted": true}, nil
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}
