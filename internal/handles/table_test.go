package handles_test

import (
	"testing"

	"github.com/AndrewDonelson/gridcodec/internal/handles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AssignAscending(t *testing.T) {
	tbl := handles.New(1)
	for i := 0; i < 50; i++ {
		assert.Equal(t, i, tbl.Assign(i*10))
	}
	assert.Equal(t, 50, tbl.Len())
	for i := 0; i < 50; i++ {
		v, err := tbl.Lookup(i)
		require.NoError(t, err)
		assert.Equal(t, i*10, v, "growth must keep handle meaning")
	}
}

func TestTable_LookupOutOfRange(t *testing.T) {
	tbl := handles.New(0)
	_, err := tbl.Lookup(0)
	require.ErrorIs(t, err, handles.ErrInvalidHandle)
	tbl.Assign("x")
	_, err = tbl.Lookup(-1)
	require.ErrorIs(t, err, handles.ErrInvalidHandle)
	_, err = tbl.Lookup(1)
	require.ErrorIs(t, err, handles.ErrInvalidHandle)
}

func TestTable_Rebind(t *testing.T) {
	tbl := handles.New(4)
	h := tbl.Assign("built")
	require.NoError(t, tbl.Rebind(h, "resolved"))
	v, err := tbl.Lookup(h)
	require.NoError(t, err)
	assert.Equal(t, "resolved", v)
	require.ErrorIs(t, tbl.Rebind(5, "nope"), handles.ErrInvalidHandle)
}

func TestTable_Reset(t *testing.T) {
	tbl := handles.New(2)
	tbl.Assign(1)
	tbl.Assign(2)
	assert.Equal(t, []any{1, 2}, tbl.Snapshot())
	tbl.Reset()
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, 0, tbl.Assign("again"), "handles restart at zero after reset")
}
