package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/config"
	"backoffice/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", MemorySeedFile: "seed.yaml"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "x.db", cfg.SQLiteDBPath)
	assert.Equal(t, "seed.yaml", cfg.MemorySeedFile)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Type: "nope"}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: SheetsBackend}.Validate())
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:           MemoryBackend,
		MemorySeedFile: filepath.Join(t.TempDir(), "missing.yaml"),
	})
	require.NoError(t, err)
	assert.Nil(t, res.Cleanup)

	figs, err := res.Backend.ListFigures(context.Background(), core.SectionPayroll)
	require.NoError(t, err)
	assert.NotEmpty(t, figs)
}

func TestCreateSQLiteBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "figures.db"),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Cleanup)
	defer res.Cleanup()

	_, ok := res.Backend.(Pinger)
	assert.True(t, ok, "sqlite backend should report liveness")

	figs, err := res.Backend.ListFigures(context.Background(), core.SectionBudgeting)
	require.NoError(t, err)
	assert.Empty(t, figs)
}

type failingReader struct{}

func (failingReader) ListFigures(context.Context, core.Section) ([]core.Figure, error) {
	return nil, errors.New("sheet unreachable")
}

func TestProbe(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:           MemoryBackend,
		MemorySeedFile: filepath.Join(t.TempDir(), "missing.yaml"),
	})
	require.NoError(t, err)
	assert.NoError(t, Probe(context.Background(), res.Backend))
	assert.EqualError(t, Probe(context.Background(), failingReader{}), "sheet unreachable")
}
