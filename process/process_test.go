//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package process

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineBufferEviction(t *testing.T) {
	buffer := NewLineBuffer(10)
	buffer.Append("aaaa\n") // 5 bytes
	buffer.Append("bbbb\n") // 10 bytes
	buffer.Append("cccc\n") // evicts aaaa
	assert.Equal(t, "bbbb\ncccc\n", buffer.Tail(10))
	assert.Equal(t, "cccc\n", buffer.Tail(1))
	assert.Equal(t, "", buffer.Tail(0))
}

func TestManagerStartAndOutput(t *testing.T) {
	manager := NewManager()
	handle, err := manager.Start("run1", "p1", "echoer", []string{"sh", "-c", "echo out; echo err >&2"})
	require.NoError(t, err)

	waitExit(t, handle)

	output, err := manager.GetOutput("run1", "p1", 10)
	require.NoError(t, err)
	assert.Equal(t, "out\n", output.Stdout)
	assert.Equal(t, "err\n", output.Stderr)
	assert.False(t, output.Running)

	code, ok := handle.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 0, code)
}

func TestManagerDuplicateProcessID(t *testing.T) {
	manager := NewManager()
	_, err := manager.Start("run1", "p1", "sleeper", []string{"sleep", "5"})
	require.NoError(t, err)
	defer manager.CleanupRun("run1")

	_, err = manager.Start("run1", "p1", "sleeper", []string{"sleep", "5"})
	assert.ErrorIs(t, err, ErrProcessExists)
}

func TestManagerProcessLimit(t *testing.T) {
	manager := NewManager(WithMaxProcessesPerRun(2))
	defer manager.CleanupRun("run1")
	for i := 0; i < 2; i++ {
		_, err := manager.Start("run1", fmt.Sprintf("p%d", i), "sleeper", []string{"sleep", "5"})
		require.NoError(t, err)
	}
	_, err := manager.Start("run1", "p9", "sleeper", []string{"sleep", "5"})
	assert.ErrorIs(t, err, ErrProcessLimitReached)
}

func TestManagerProcessLimitUnderContention(t *testing.T) {
	const limit = 4
	manager := NewManager(WithMaxProcessesPerRun(limit))
	defer manager.CleanupRun("run1")

	var wg sync.WaitGroup
	for i := 0; i < limit*4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := manager.Start("run1", fmt.Sprintf("p%d", i), "sleeper", []string{"sleep", "30"})
			if err != nil {
				assert.ErrorIs(t, err, ErrProcessLimitReached)
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, manager.List("run1"), limit, "Expected the limit to hold under concurrent starts")
}

func TestManagerStop(t *testing.T) {
	manager := NewManager(WithStopTimeout(2 * time.Second))
	handle, err := manager.Start("run1", "p1", "sleeper", []string{"sleep", "30"})
	require.NoError(t, err)
	require.True(t, handle.IsRunning())

	found, _ := manager.Stop("run1", "p1")
	assert.True(t, found)
	assert.False(t, handle.IsRunning())

	found, code := manager.Stop("run1", "missing")
	assert.False(t, found)
	assert.Nil(t, code)
}

func TestManagerCleanupRun(t *testing.T) {
	manager := NewManager(WithStopTimeout(2 * time.Second))
	handle, err := manager.Start("run1", "p1", "sleeper", []string{"sleep", "30"})
	require.NoError(t, err)

	manager.CleanupRun("run1")
	assert.False(t, handle.IsRunning())
	assert.Empty(t, manager.List("run1"))

	_, err = manager.GetOutput("run1", "p1", 10)
	assert.ErrorIs(t, err, ErrProcessNotFound)
}

func waitExit(t *testing.T, handle *Handle) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for handle.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("process did not exit in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
