package gridcodec_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewDonelson/gridcodec"
	"github.com/AndrewDonelson/gridcodec/internal/wire"
	"github.com/AndrewDonelson/gridcodec/internal/wiretest"
)

func newRecordStore(t *testing.T, ttl time.Duration) (*gridcodec.RecordStore, *gridcodec.Registry) {
	t.Helper()
	_, client := newMiniredis(t)
	reg := newRegistry(t)
	registerModels(t, reg)
	s, err := gridcodec.NewRecordStore(gridcodec.RecordStoreOptions{
		Client:    client,
		KeyPrefix: "rec",
		TTL:       ttl,
		Decoder:   gridcodec.Config{Resolver: reg},
	})
	require.NoError(t, err)
	return s, reg
}

func TestRecordStore_RequiresClientAndResolver(t *testing.T) {
	_, err := gridcodec.NewRecordStore(gridcodec.RecordStoreOptions{})
	assert.ErrorIs(t, err, gridcodec.ErrInvalidConfig)

	_, client := newMiniredis(t)
	_, err = gridcodec.NewRecordStore(gridcodec.RecordStoreOptions{Client: client})
	assert.ErrorIs(t, err, gridcodec.ErrInvalidConfig)
}

func TestRecordStore_PutGetField(t *testing.T) {
	ctx := context.Background()
	s, _ := newRecordStore(t, 0)

	w := wiretest.NewWriter()
	writePerson(w, 7, "x", "a", "b").End()
	require.NoError(t, s.Put(ctx, "people", "7", w.Bytes()))

	raw, err := s.Raw(ctx, "people", "7")
	require.NoError(t, err)
	assert.Equal(t, w.Bytes(), raw)

	v, err := s.Get(ctx, "people", "7")
	require.NoError(t, err)
	assert.Equal(t, "x", v.(*Person).Name)

	name, err := s.Field(ctx, "people", "7", "name")
	require.NoError(t, err)
	assert.Equal(t, "x", name)

	ok, err := s.HasField(ctx, "people", "7", "tags")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Field(ctx, "people", "7", "age")
	assert.ErrorIs(t, err, gridcodec.ErrUnknownField, "absent from the footer and from the decoded struct")
}

func TestRecordStore_FieldFallsBackToDecode(t *testing.T) {
	ctx := context.Background()
	s, _ := newRecordStore(t, 0)

	w := wiretest.NewWriter()
	w.Begin(wire.TagSerializable, gridcodec.TypeID(nodeClass), "", 0)
	w.Str("head").Null()
	require.NoError(t, s.Put(ctx, "nodes", "h", w.Bytes()))

	name, err := s.Field(ctx, "nodes", "h", "name")
	require.NoError(t, err)
	assert.Equal(t, "head", name)

	ok, err := s.HasField(ctx, "nodes", "h", "name")
	require.NoError(t, err)
	assert.False(t, ok, "no footer to consult")
}

func TestRecordStore_Missing(t *testing.T) {
	ctx := context.Background()
	s, _ := newRecordStore(t, time.Second)

	_, err := s.Get(ctx, "people", "nobody")
	assert.ErrorIs(t, err, gridcodec.ErrRecordNotFound)
	_, err = s.Field(ctx, "people", "nobody", "name")
	assert.ErrorIs(t, err, gridcodec.ErrRecordNotFound)

	w := wiretest.NewWriter().Str("v")
	require.NoError(t, s.Put(ctx, "c", "k", w.Bytes()))
	require.NoError(t, s.Delete(ctx, "c", "k"))
	_, err = s.Raw(ctx, "c", "k")
	assert.ErrorIs(t, err, gridcodec.ErrRecordNotFound)
}

func TestRecordStore_GetMany(t *testing.T) {
	ctx := context.Background()
	s, _ := newRecordStore(t, 0)

	for _, k := range []string{"a", "b"} {
		w := wiretest.NewWriter()
		writePerson(w, 1, k).End()
		require.NoError(t, s.Put(ctx, "people", k, w.Bytes()))
	}
	got, err := s.GetMany(ctx, "people", []string{"a", "b", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got["b"].(*Person).Name)

	require.NoError(t, s.Put(ctx, "people", "bad", []byte{77}))
	_, err = s.GetMany(ctx, "people", []string{"a", "bad"})
	assert.ErrorIs(t, err, gridcodec.ErrMalformedStream)
}

func TestFieldOf(t *testing.T) {
	o := gridcodec.NewObject("x.Y")
	o.SetField("k", int32(1))
	v, err := gridcodec.FieldOf(o, "k")
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)
	_, err = gridcodec.FieldOf(o, "nope")
	assert.ErrorIs(t, err, gridcodec.ErrUnknownField)

	d := &Derived{Base: Base{Version: 3}, Label: "l", Extra: 9}
	v, err = gridcodec.FieldOf(d, "version")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
	v, err = gridcodec.FieldOf(d, "label")
	require.NoError(t, err)
	assert.Equal(t, "l", v)
	_, err = gridcodec.FieldOf(d, "extra")
	assert.ErrorIs(t, err, gridcodec.ErrUnknownField, "excluded fields are not visible")

	_, err = gridcodec.FieldOf((*Derived)(nil), "label")
	assert.ErrorIs(t, err, gridcodec.ErrUnknownField)
	_, err = gridcodec.FieldOf("str", "label")
	assert.ErrorIs(t, err, gridcodec.ErrUnknownField)
}
