package gridcodec_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/AndrewDonelson/gridcodec"
	"github.com/AndrewDonelson/gridcodec/internal/codec"
	"github.com/AndrewDonelson/gridcodec/internal/wire"
	"github.com/AndrewDonelson/gridcodec/internal/wiretest"
)

func TestDecoder_Scalars(t *testing.T) {
	reg := newRegistry(t)
	ts := time.Date(2024, 5, 17, 8, 30, 0, 123_000_000, time.UTC)

	cases := []struct {
		name  string
		write func(w *wiretest.Writer)
		want  any
	}{
		{"null", func(w *wiretest.Writer) { w.Null() }, nil},
		{"byte", func(w *wiretest.Writer) { w.Tag(wire.TagByte).Int8(-7) }, int8(-7)},
		{"short", func(w *wiretest.Writer) { w.Tag(wire.TagShort).Int16(-300) }, int16(-300)},
		{"int", func(w *wiretest.Writer) { w.TInt(123456) }, int32(123456)},
		{"long", func(w *wiretest.Writer) { w.TLong(-1 << 40) }, int64(-1 << 40)},
		{"float", func(w *wiretest.Writer) { w.Tag(wire.TagFloat).Float32(1.5) }, float32(1.5)},
		{"double", func(w *wiretest.Writer) { w.TDouble(-2.25) }, float64(-2.25)},
		{"char", func(w *wiretest.Writer) { w.Tag(wire.TagChar).Uint16('Z') }, gridcodec.Char('Z')},
		{"bool true", func(w *wiretest.Writer) { w.TBool(true) }, true},
		{"bool nonzero", func(w *wiretest.Writer) { w.Tag(wire.TagBoolean).Byte(9) }, true},
		{"bool false", func(w *wiretest.Writer) { w.TBool(false) }, false},
		{"string", func(w *wiretest.Writer) { w.Str("héllo") }, "héllo"},
		{"empty string", func(w *wiretest.Writer) { w.Str("") }, ""},
		{"date", func(w *wiretest.Writer) { w.Date(ts.UnixMilli()) }, ts},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := wiretest.NewWriter()
			tc.write(w)
			v, _ := decodeOne(t, reg, w)
			assert.Equal(t, tc.want, v)
		})
	}
}

func TestDecoder_UUID(t *testing.T) {
	w := wiretest.NewWriter().UUID(0x0011223344556677, -0x7766554433221101)
	v, d := decodeOne(t, newRegistry(t), w)
	assert.Equal(t, uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff"), v)
	assert.Len(t, d.HandledObjects(), 1)
}

func TestDecoder_PrimitiveArrays(t *testing.T) {
	w := wiretest.NewWriter()
	w.Tag(wire.TagByteArr).Int32(3).Raw([]byte{1, 2, 255})
	w.Tag(wire.TagShortArr).Int32(2).Int16(-1).Int16(2)
	w.Tag(wire.TagIntArr).Int32(2).Int32(10).Int32(-20)
	w.Tag(wire.TagLongArr).Int32(1).Int64(1 << 50)
	w.Tag(wire.TagFloatArr).Int32(1).Float32(0.5)
	w.Tag(wire.TagDoubleArr).Int32(2).Float64(1).Float64(2)
	w.Tag(wire.TagCharArr).Int32(2).Uint16('o').Uint16('k')
	w.Tag(wire.TagBooleanArr).Int32(3).Bool(true).Bool(false).Bool(true)
	w.Tag(wire.TagIntArr).Int32(0)

	d := newDecoder(t, newRegistry(t), w)
	want := []any{
		[]byte{1, 2, 255},
		[]int16{-1, 2},
		[]int32{10, -20},
		[]int64{1 << 50},
		[]float32{0.5},
		[]float64{1, 2},
		[]gridcodec.Char{'o', 'k'},
		[]bool{true, false, true},
		[]int32{},
	}
	for i, exp := range want {
		v, err := d.DecodeNext()
		require.NoError(t, err, "value %d", i)
		assert.Equal(t, exp, v, "value %d", i)
	}
	assert.False(t, d.More())
	assert.Len(t, d.HandledObjects(), len(want), "every array takes a handle")
}

func TestDecoder_ScalarsTakeNoHandle(t *testing.T) {
	w := wiretest.NewWriter().TInt(1).TBool(true).Null().Str("s")
	d := newDecoder(t, newRegistry(t), w)
	for d.More() {
		_, err := d.DecodeNext()
		require.NoError(t, err)
	}
	assert.Equal(t, []any{"s"}, d.HandledObjects())
}

func TestDecoder_HandlesPersistAcrossCalls(t *testing.T) {
	w := wiretest.NewWriter().Str("shared").Handle(0)
	d := newDecoder(t, newRegistry(t), w)

	first, err := d.DecodeNext()
	require.NoError(t, err)
	second, err := d.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecoder_InvalidHandle(t *testing.T) {
	w := wiretest.NewWriter().Handle(3)
	d := newDecoder(t, newRegistry(t), w)
	_, err := d.DecodeNext()
	require.ErrorIs(t, err, gridcodec.ErrInvalidHandle)
	assert.NotErrorIs(t, err, gridcodec.ErrMalformedStream)
}

func TestDecoder_UnknownTag(t *testing.T) {
	w := wiretest.NewWriter().Byte(77)
	d := newDecoder(t, newRegistry(t), w)
	_, err := d.DecodeNext()
	require.ErrorIs(t, err, gridcodec.ErrMalformedStream)
	assert.Contains(t, err.Error(), "same version")

	var se *gridcodec.StreamError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 0, se.Offset)
}

func TestDecoder_Truncated(t *testing.T) {
	cases := map[string]*wiretest.Writer{
		"int":         wiretest.NewWriter().Tag(wire.TagInt).Int16(1),
		"string body": wiretest.NewWriter().Tag(wire.TagString).Int32(10).Raw([]byte("abc")),
		"array len":   wiretest.NewWriter().Tag(wire.TagLongArr).Int32(1 << 20),
		"empty":       wiretest.NewWriter().Tag(wire.TagArrayList),
	}
	for name, w := range cases {
		t.Run(name, func(t *testing.T) {
			d := newDecoder(t, newRegistry(t), w)
			_, err := d.DecodeNext()
			assert.ErrorIs(t, err, gridcodec.ErrMalformedStream)
		})
	}
}

func TestDecoder_Delegated(t *testing.T) {
	payload, err := msgpack.Marshal(map[string]any{"k": "v", "n": int16(3)})
	require.NoError(t, err)

	w := wiretest.NewWriter().Delegated(payload)
	v, d := decodeOne(t, newRegistry(t), w)
	assert.Equal(t, map[string]any{"k": "v", "n": int64(3)}, v)
	assert.Empty(t, d.HandledObjects(), "delegated values take no handle")
}

func TestDecoder_DelegatedJSONFallback(t *testing.T) {
	w := wiretest.NewWriter().Delegated([]byte(`[1,2]`))

	d, err := gridcodec.NewDecoder(w.Bytes(), gridcodec.Config{Resolver: newRegistry(t), Fallback: codec.JSON{}})
	require.NoError(t, err)
	v, err := d.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("1"), json.Number("2")}, v)
}

func TestDecoder_DelegatedFailure(t *testing.T) {
	w := wiretest.NewWriter().Delegated([]byte{0xc1})
	d := newDecoder(t, newRegistry(t), w)
	_, err := d.DecodeNext()
	require.ErrorIs(t, err, gridcodec.ErrDelegatedDecodeFailed)
}

func TestDecoder_ClassRef(t *testing.T) {
	reg := newRegistry(t)
	_, err := reg.RegisterGeneric("org.example.Point", nil)
	require.NoError(t, err)
	id := gridcodec.TypeID("org.example.Point")

	w := wiretest.NewWriter()
	w.Tag(wire.TagClass).ClassRef(id, "")
	w.Tag(wire.TagClass).ClassRef(0, "org.example.Point")
	w.Tag(wire.TagClass).ClassRef(0, "java.lang.String")
	w.Tag(wire.TagClass).ClassRef(4242, "")

	d := newDecoder(t, reg, w)
	want := []*gridcodec.Class{
		{Name: "org.example.Point", TypeID: id},
		{Name: "org.example.Point", TypeID: id},
		{Name: "java.lang.String", TypeID: gridcodec.TypeID("java.lang.String")},
	}
	for _, exp := range want {
		v, err := d.DecodeNext()
		require.NoError(t, err)
		assert.Equal(t, exp, v)
	}

	_, err = d.DecodeNext()
	require.ErrorIs(t, err, gridcodec.ErrUnknownType, "type ids must resolve")
	var ue *gridcodec.UnknownTypeError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, int32(4242), ue.TypeID)
	assert.Empty(t, d.HandledObjects(), "class references take no handle")
}

func TestDecoder_ResetAndClose(t *testing.T) {
	w := wiretest.NewWriter().Str("a").Handle(0)
	d := newDecoder(t, newRegistry(t), w)

	_, err := d.DecodeNext()
	require.NoError(t, err)
	require.NoError(t, d.Reset())
	assert.Equal(t, 0, d.Position())
	assert.Empty(t, d.HandledObjects())

	v, err := d.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	_, err = d.DecodeNext()
	assert.ErrorIs(t, err, gridcodec.ErrClosed)
	assert.ErrorIs(t, d.Reset(), gridcodec.ErrClosed)
	assert.False(t, d.More())
}

func TestNewDecoder_RequiresResolver(t *testing.T) {
	_, err := gridcodec.NewDecoder([]byte{0}, gridcodec.Config{})
	assert.ErrorIs(t, err, gridcodec.ErrInvalidConfig)
}
