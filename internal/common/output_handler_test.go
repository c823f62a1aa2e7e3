package common

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescreen/internal/errors"
	"resumescreen/internal/types"
)

func TestHandleOutputToWriter(t *testing.T) {
	var buf bytes.Buffer
	oh := NewOutputHandler(errors.NewDiscardLogger())
	oh.stdout = &buf

	records := []types.ResumeRecord{{ID: "Resume_1", Status: types.StatusProcessed}}
	require.NoError(t, oh.HandleOutput(records, CommandConfig{OutputFormat: "text"}))
	assert.Contains(t, buf.String(), "Resume_1")
}

func TestHandleOutputToFile(t *testing.T) {
	oh := NewOutputHandler(errors.NewDiscardLogger())
	path := filepath.Join(t.TempDir(), "reports", "summary.json")

	summary := types.BatchSummary{JDHash: "abc", Total: 2}
	require.NoError(t, oh.HandleOutput(summary, CommandConfig{OutputFile: path, OutputFormat: "json"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"jdHash": "abc"`)
}

func TestHandleOutputUnknownFormat(t *testing.T) {
	oh := NewOutputHandler(errors.NewDiscardLogger())
	err := oh.HandleOutput(types.BatchSummary{}, CommandConfig{OutputFormat: "yaml"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
}

func TestRunCommandPropagatesOperationError(t *testing.T) {
	boom := stderrors.New("boom")
	err := RunCommand(context.Background(), errors.NewDiscardLogger(), CommandConfig{OutputFormat: "json"},
		func(context.Context) (types.BatchSummary, error) { return types.BatchSummary{}, boom },
		nil)
	assert.ErrorIs(t, err, boom)
}

func TestRunCommandWritesResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	logged := false

	err := RunCommand(context.Background(), errors.NewDiscardLogger(),
		CommandConfig{OutputFile: path, OutputFormat: "markdown"},
		func(context.Context) ([]types.ResumeRecord, error) { return nil, nil },
		func(CommandConfig) { logged = true })
	require.NoError(t, err)
	assert.True(t, logged)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "_No resumes found._\n", string(data))
}
