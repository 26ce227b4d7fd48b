package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchat/orchat/internal/schema"
)

func sampleSession(t *testing.T) *schema.Session {
	t.Helper()
	sess, err := schema.NewSession("openai/gpt-4-turbo", "be brief")
	require.NoError(t, err)

	usage, err := schema.NewUsage(120, 40, 160)
	require.NoError(t, err)
	latency := 850.0
	cost := 0.0024
	require.NoError(t, sess.AddTurn(schema.Turn{
		Messages: []schema.Message{
			{Role: schema.RoleUser, Content: "What is Go?"},
			{Role: schema.RoleAssistant, Content: "A programming language."},
		},
		Usage:        &usage,
		LatencyMS:    &latency,
		CostEstimate: &cost,
	}))
	// Second turn with no metadata at all: absent fields must stay absent.
	require.NoError(t, sess.AddTurn(schema.Turn{
		Messages: []schema.Message{
			{Role: schema.RoleUser, Content: "Thanks"},
			{Role: schema.RoleAssistant, Content: "Anytime."},
		},
	}))
	sess.Meta["budget_max"] = 5.0
	return sess
}

func TestWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sess.json")

	orig := sampleSession(t)
	require.NoError(t, Write(orig, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, orig.SchemaVersion, loaded.SchemaVersion)
	assert.Equal(t, orig.Model, loaded.Model)
	assert.Equal(t, orig.System, loaded.System)
	assert.True(t, orig.CreatedAt.Equal(loaded.CreatedAt))
	require.Len(t, loaded.Turns, 2)

	first := loaded.Turns[0]
	assert.Equal(t, orig.Turns[0].Messages, first.Messages)
	require.NotNil(t, first.Usage)
	assert.Equal(t, 160, first.Usage.TotalTokens)
	require.NotNil(t, first.LatencyMS)
	assert.Equal(t, 850.0, *first.LatencyMS)
	require.NotNil(t, first.CostEstimate)
	assert.Equal(t, 0.0024, *first.CostEstimate)

	second := loaded.Turns[1]
	assert.Nil(t, second.Usage)
	assert.Nil(t, second.LatencyMS)
	assert.Nil(t, second.CostEstimate)

	assert.Equal(t, orig.UsageTotals, loaded.UsageTotals)
}

func TestAbsentFieldsStayAbsentOnDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sess.json")

	sess, err := schema.NewSession("m", "")
	require.NoError(t, err)
	require.NoError(t, sess.AddTurn(schema.Turn{
		Messages: []schema.Message{
			{Role: schema.RoleUser, Content: "q"},
			{Role: schema.RoleAssistant, Content: "a"},
		},
	}))
	require.NoError(t, Write(sess, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// An unknown cost is an absent key, never a zero.
	assert.NotContains(t, string(data), "cost_estimate")
	assert.NotContains(t, string(data), "latency_ms")
	assert.NotContains(t, string(data), `"system"`)
}

func TestStoreSaveAndList(t *testing.T) {
	store := NewStore(t.TempDir())

	sess := sampleSession(t)
	path, err := store.Save(sess)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Contains(t, filepath.Base(path), "openai-gpt-4-turbo")

	paths, err := store.List()
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, path, paths[0])
}

func TestStoreListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	older := filepath.Join(dir, "older.json")
	newer := filepath.Join(dir, "newer.json")
	sess := sampleSession(t)
	require.NoError(t, Write(sess, older))
	require.NoError(t, Write(sess, newer))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	paths, err := store.List()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, newer, paths[0])
	assert.Equal(t, older, paths[1])
}

func TestStoreListEmptyDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing"))
	paths, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLoadRefusesNewerSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "future.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version": 99, "model": "m", "turns": []}`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version 99")
}

func TestLoadRefusesMissingModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nomodel.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version": 1, "model": " ", "turns": []}`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "openai-gpt-4-turbo", slugify("openai/gpt-4-turbo"))
	assert.Equal(t, "claude-3.5-sonnet", slugify("Claude 3.5 Sonnet"))
	assert.Equal(t, "meta-llama-llama-3-8b-free", slugify("meta-llama/llama-3-8b:free"))
}
