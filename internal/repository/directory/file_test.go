package directory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterforecast/backend/internal/domain"
)

func TestRead(t *testing.T) {
	d, err := Read(strings.NewReader(`{
		"business_ids": [393403, "ab-12"],
		"meter_ids": {"393403": [200713, 201130], "ab-12": ["x1"]}
	}`))
	require.NoError(t, err)
	ctx := context.Background()

	businesses, err := d.BusinessIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"393403", "ab-12"}, businesses)

	meters, err := d.MeterIDs(ctx, "393403")
	require.NoError(t, err)
	assert.Equal(t, []string{"200713", "201130"}, meters)

	_, err = d.MeterIDs(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRead_Malformed(t *testing.T) {
	_, err := Read(strings.NewReader(`{"business_ids": [true]}`))
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = Read(strings.NewReader(`[`))
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"business_ids": [1], "meter_ids": {"1": [2]}}`), 0o644))

	d, err := LoadFile(path)
	require.NoError(t, err)
	meters, err := d.MeterIDs(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, meters)

	_, err = LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
