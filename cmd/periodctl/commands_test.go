package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competencias/backend/internal/model"
)

func TestTargetHalf(t *testing.T) {
	now := time.Date(2025, time.September, 3, 10, 0, 0, 0, time.UTC)

	y, h := targetHalf(now, 0, 0)
	assert.Equal(t, 2025, y)
	assert.Equal(t, model.HalfSecond, h)

	y, h = targetHalf(now, 2026, 1)
	assert.Equal(t, 2026, y)
	assert.Equal(t, model.HalfFirst, h)

	_, h = targetHalf(now, 0, 3)
	assert.False(t, h.Valid())
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := rootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"current", "backfill", "list", "activate", "resolve", "migrate"} {
		assert.True(t, names[want], want)
	}
}

func TestBackfillCmd_RejectsNegativeLimit(t *testing.T) {
	opened := false
	cmd := backfillCmd(func() (*app, error) {
		opened = true
		return nil, errors.New("unreachable")
	})
	cmd.SetArgs([]string{"--limit=-1"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.False(t, opened)
}

func TestActivateCmd_RequiresID(t *testing.T) {
	cmd := activateCmd(func() (*app, error) { return nil, errors.New("unreachable") })
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}

func TestResolveCmd_PropagatesBootstrapError(t *testing.T) {
	cmd := resolveCmd(func() (*app, error) { return nil, errors.New("数据库连接失败") })
	cmd.SetArgs([]string{"2025-03-01"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "数据库连接失败")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"updated": 2}))
	assert.Equal(t, "{\n  \"updated\": 2\n}\n", buf.String())
}
