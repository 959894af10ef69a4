package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRows yields n prediction runs and then reports err
type fakeRows struct {
	n, pos int
	err    error
}

func (r *fakeRows) Next() bool {
	if r.pos >= r.n {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	*dest[0].(*string) = string(rune('a' + r.pos - 1))
	*dest[1].(*string) = "200713"
	*dest[2].(*int) = 2
	*dest[3].(*time.Time) = time.Unix(0, 0)
	*dest[4].(*time.Time) = time.Unix(3600, 0)
	*dest[5].(*string) = "url"
	*dest[6].(*int64) = 1500
	*dest[7].(*time.Time) = time.Unix(7200, 0)
	return nil
}

func (r *fakeRows) Err() error {
	return r.err
}

func TestScanRuns(t *testing.T) {
	runs, err := scanRuns(&fakeRows{n: 2})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a", runs[0].ID)
	assert.Equal(t, 1500*time.Millisecond, runs[1].Duration)
}

func TestScanRuns_StreamError(t *testing.T) {
	broken := errors.New("connection reset")

	runs, err := scanRuns(&fakeRows{n: 1, err: broken})
	assert.ErrorIs(t, err, broken)
	assert.Nil(t, runs)
}
