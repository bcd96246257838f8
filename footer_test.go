package gridcodec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewDonelson/gridcodec"
	"github.com/AndrewDonelson/gridcodec/internal/wire"
	"github.com/AndrewDonelson/gridcodec/internal/wiretest"
)

func TestFooter_FieldRanges(t *testing.T) {
	reg := newRegistry(t)
	registerModels(t, reg)

	w := wiretest.NewWriter()
	rec := writePerson(w, 7, "x", "a", "b")
	fields := rec.FieldsStart()
	rec.End()
	d := newDecoder(t, reg, w)

	r, err := d.FieldRange("id")
	require.NoError(t, err)
	assert.Equal(t, gridcodec.FieldRange{Start: fields, Len: 4}, r)

	r, err = d.FieldRange("name")
	require.NoError(t, err)
	assert.Equal(t, gridcodec.FieldRange{Start: fields + 4, Len: 6}, r)

	r, err = d.FieldRange("tags")
	require.NoError(t, err)
	assert.Equal(t, gridcodec.FieldRange{Start: fields + 10, Len: 9 + 6 + 6}, r)

	assert.Equal(t, 0, d.Position(), "lookups restore the read position")
}

func TestFooter_ReadField(t *testing.T) {
	reg := newRegistry(t)
	registerModels(t, reg)

	w := wiretest.NewWriter()
	writePerson(w, 7, "x", "a", "b").End()
	d := newDecoder(t, reg, w)

	ok, err := d.HasField("name")
	require.NoError(t, err)
	assert.True(t, ok)

	name, err := d.ReadField("name")
	require.NoError(t, err)
	assert.Equal(t, "x", name)

	id, err := d.ReadField("id")
	require.NoError(t, err)
	assert.Equal(t, int32(7), id)

	tags, err := d.ReadField("tags")
	require.NoError(t, err)
	s, isSet := tags.(*gridcodec.Set)
	require.True(t, isSet)
	assert.Equal(t, []any{"a", "b"}, s.Values())

	upper, err := d.ReadField("NAME")
	require.NoError(t, err)
	assert.Equal(t, "x", upper, "field ids hash the lower-cased name")

	assert.Equal(t, 0, d.Position())
	assert.Empty(t, d.HandledObjects(), "field reads use a scratch handle table")

	v, err := d.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, "x", v.(*Person).Name)
	assert.False(t, d.More())
}

func TestFooter_FieldNotPresent(t *testing.T) {
	reg := newRegistry(t)
	registerModels(t, reg)

	w := wiretest.NewWriter()
	writePerson(w, 1, "n").End()
	d := newDecoder(t, reg, w)

	ok, err := d.HasField("age")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = d.ReadField("age")
	require.ErrorIs(t, err, gridcodec.ErrFieldNotPresent)
	assert.ErrorIs(t, err, gridcodec.ErrUnsupportedFooter)
	var fe *gridcodec.FooterError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "age", fe.Field)
	assert.Equal(t, gridcodec.TypeID(personClass), fe.TypeID)
}

func TestFooter_Unsupported(t *testing.T) {
	reg := newRegistry(t)
	registerModels(t, reg)

	empty := wiretest.NewWriter()
	writePerson(empty, 1, "n").EndEmpty()

	money := wiretest.NewWriter()
	money.Begin(wire.TagExternalizable, gridcodec.TypeID(moneyClass), "", 0)
	money.Int64(1).Str("EUR")

	node := wiretest.NewWriter()
	node.Begin(wire.TagSerializable, gridcodec.TypeID(nodeClass), "", 0)
	node.Str("n").Null()

	cases := map[string]*wiretest.Writer{
		"empty footer":   empty,
		"externalizable": money,
		"no metadata":    node,
		"not a record":   wiretest.NewWriter().Str("plain"),
		"unknown inline": wiretest.NewWriter().Tag(wire.TagSerializable).ClassRef(0, "org.example.Gone").Int16(0),
	}
	for name, w := range cases {
		t.Run(name, func(t *testing.T) {
			d := newDecoder(t, reg, w)
			_, err := d.ReadField("name")
			require.ErrorIs(t, err, gridcodec.ErrUnsupportedFooter)
			assert.NotErrorIs(t, err, gridcodec.ErrFieldNotPresent)

			ok, err := d.HasField("name")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, 0, d.Position())
		})
	}
}

func TestFooter_InlineClassName(t *testing.T) {
	reg := newRegistry(t)
	registerModels(t, reg)

	w := wiretest.NewWriter()
	rec := w.Begin(wire.TagSerializable, 0, personClass, 0)
	rec.Fixed(func(w *wiretest.Writer) { w.Int32(3) })
	rec.Variable(func(w *wiretest.Writer) { w.Str("inline") })
	rec.Variable(func(w *wiretest.Writer) { w.Null() })
	fields := rec.FieldsStart()
	rec.End()

	d := newDecoder(t, reg, w)
	r, err := d.FieldRange("name")
	require.NoError(t, err)
	assert.Equal(t, fields+4, r.Start)

	v, err := d.ReadField("name")
	require.NoError(t, err)
	assert.Equal(t, "inline", v)

	tags, err := d.ReadField("tags")
	require.NoError(t, err)
	assert.Nil(t, tags)
}

func TestFooter_IndirectEntry(t *testing.T) {
	reg := newRegistry(t)
	_, err := reg.RegisterGeneric("org.example.Doc", []gridcodec.GenericLevel{{
		Name: "Doc",
		Fields: []gridcodec.GenericField{
			{Name: "n", Kind: gridcodec.KindInt},
			{Name: "ref", Kind: gridcodec.KindOther},
			{Name: "tail", Kind: gridcodec.KindOther},
		},
	}})
	require.NoError(t, err)

	w := wiretest.NewWriter().Str("canonical")
	canonicalLen := int32(w.Len())
	rec := w.Begin(wire.TagSerializable, gridcodec.TypeID("org.example.Doc"), "", 0)
	rec.Fixed(func(w *wiretest.Writer) { w.Int32(9) })
	rec.Indirect(func(w *wiretest.Writer) { w.Str("canonical") }, 0, canonicalLen)
	tailAt := rec.Variable(func(w *wiretest.Writer) { w.Str("tail") })
	rec.End()

	d := newDecoder(t, reg, w)
	_, err = d.DecodeNext()
	require.NoError(t, err)
	at := d.Position()

	r, err := d.FieldRange("ref")
	require.NoError(t, err)
	assert.Equal(t, gridcodec.FieldRange{Start: 0, Len: int(canonicalLen)}, r, "indirect entries point at the canonical bytes")

	ref, err := d.ReadField("ref")
	require.NoError(t, err)
	assert.Equal(t, "canonical", ref)

	r, err = d.FieldRange("tail")
	require.NoError(t, err)
	assert.Equal(t, gridcodec.FieldRange{Start: tailAt, Len: 9}, r, "indirect entries count the handle pair in the offset")

	tail, err := d.ReadField("tail")
	require.NoError(t, err)
	assert.Equal(t, "tail", tail)
	assert.Equal(t, at, d.Position())

	v, err := d.DecodeNext()
	require.NoError(t, err)
	o := v.(*gridcodec.Object)
	got, _ := o.Field("tail")
	assert.Equal(t, "tail", got)
	assert.False(t, d.More())
}

func registerHolder(t *testing.T, reg *gridcodec.Registry) int32 {
	t.Helper()
	d, err := reg.RegisterGeneric("org.example.Holder", []gridcodec.GenericLevel{{
		Name: "Holder",
		Fields: []gridcodec.GenericField{
			{Name: "label", Kind: gridcodec.KindOther},
			{Name: "point", Kind: gridcodec.KindOther},
			{Name: "person", Kind: gridcodec.KindOther},
			{Name: "node", Kind: gridcodec.KindOther},
		},
	}})
	require.NoError(t, err)
	return d.TypeID
}

func writeHolder(w *wiretest.Writer, id int32) {
	rec := w.Begin(wire.TagSerializable, id, "", 0)
	rec.Variable(func(w *wiretest.Writer) { w.Str("holder") })
	rec.Variable(func(w *wiretest.Writer) {
		p := w.Begin(wire.TagMarshalAware, gridcodec.TypeID(pointClass), "", 0)
		p.Fixed(func(w *wiretest.Writer) { w.Int32(10) })
		p.Fixed(func(w *wiretest.Writer) { w.Int32(20) })
		p.Variable(func(w *wiretest.Writer) { w.Str("origin") })
		p.End()
	})
	rec.Variable(func(w *wiretest.Writer) { writePerson(w, 5, "pat", "z").End() })
	rec.Variable(func(w *wiretest.Writer) {
		w.Begin(wire.TagSerializable, gridcodec.TypeID(nodeClass), "", 0)
		w.Str("leaf").Null()
	})
	rec.End()
}

func TestFooter_NestedRecordsStayIndexed(t *testing.T) {
	reg := newRegistry(t)
	registerModels(t, reg)
	id := registerHolder(t, reg)

	w := wiretest.NewWriter()
	writeHolder(w, id)
	d := newDecoder(t, reg, w)

	v, err := d.ReadField("point")
	require.NoError(t, err)
	pt, ok := v.(*gridcodec.IndexedObject)
	require.True(t, ok)
	assert.Equal(t, wire.TagMarshalAware, pt.Tag)
	assert.Equal(t, gridcodec.TypeID(pointClass), pt.TypeID)
	r, err := d.FieldRange("point")
	require.NoError(t, err)
	assert.Equal(t, w.Bytes()[r.Start:r.Start+r.Len], pt.Bytes())

	pd, err := pt.Decoder(gridcodec.Config{Resolver: reg})
	require.NoError(t, err)
	y, err := pd.ReadField("y")
	require.NoError(t, err)
	assert.Equal(t, int32(20), y)
	full, err := pd.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, &Point{X: 10, Y: 20, Label: "origin"}, full)
	assert.False(t, pd.More())

	v, err = d.ReadField("person")
	require.NoError(t, err)
	per, ok := v.(*gridcodec.IndexedObject)
	require.True(t, ok)
	assert.Equal(t, wire.TagSerializable, per.Tag)
	perDec, err := per.Decoder(gridcodec.Config{Resolver: reg})
	require.NoError(t, err)
	name, err := perDec.ReadField("name")
	require.NoError(t, err)
	assert.Equal(t, "pat", name)

	v, err = d.ReadField("node")
	require.NoError(t, err)
	assert.Equal(t, &Node{Name: "leaf"}, v, "records without footer metadata are decoded")

	v, err = d.DecodeField("point")
	require.NoError(t, err)
	assert.Equal(t, &Point{X: 10, Y: 20, Label: "origin"}, v)

	v, err = d.DecodeNext()
	require.NoError(t, err)
	o := v.(*gridcodec.Object)
	nested, _ := o.Field("person")
	assert.Equal(t, "pat", nested.(*Person).Name)
	assert.False(t, d.More())
}

func TestFooter_FieldTypeMarkers(t *testing.T) {
	reg := gridcodec.NewRegistry(gridcodec.RegistryOptions{FieldTypeMarkers: true})
	registerPerson(t, reg)

	w := wiretest.NewWriter()
	rec := w.Begin(wire.TagSerializable, gridcodec.TypeID(personClass), "", 0)
	rec.Fixed(func(w *wiretest.Writer) { w.TInt(31) })
	rec.Variable(func(w *wiretest.Writer) { w.Str("marked") })
	rec.Variable(func(w *wiretest.Writer) { w.Null() })
	fields := rec.FieldsStart()
	rec.End()

	d, err := gridcodec.NewDecoder(w.Bytes(), gridcodec.Config{Resolver: reg, FieldTypeMarkers: true})
	require.NoError(t, err)

	r, err := d.FieldRange("name")
	require.NoError(t, err)
	assert.Equal(t, fields+5, r.Start)

	id, err := d.ReadField("id")
	require.NoError(t, err)
	assert.Equal(t, int32(31), id)
}

func TestFooter_CustomFieldIDs(t *testing.T) {
	ids := gridcodec.FieldIDFunc(func(name string) int32 { return gridcodec.JavaHash("f:" + name) })
	reg := gridcodec.NewRegistry(gridcodec.RegistryOptions{IDs: ids})
	registerPerson(t, reg)

	w := wiretest.NewWriter()
	writePerson(w, 2, "custom").End()

	d, err := gridcodec.NewDecoder(w.Bytes(), gridcodec.Config{Resolver: reg, FieldIDs: ids})
	require.NoError(t, err)
	v, err := d.ReadField("name")
	require.NoError(t, err)
	assert.Equal(t, "custom", v)

	_, err = d.ReadField("NAME")
	assert.ErrorIs(t, err, gridcodec.ErrFieldNotPresent)
}

func TestFooter_ClosedDecoder(t *testing.T) {
	reg := newRegistry(t)
	registerModels(t, reg)
	w := wiretest.NewWriter()
	writePerson(w, 1, "n").End()

	d := newDecoder(t, reg, w)
	require.NoError(t, d.Close())
	_, err := d.ReadField("name")
	assert.ErrorIs(t, err, gridcodec.ErrClosed)
	_, err = d.FieldRange("name")
	assert.ErrorIs(t, err, gridcodec.ErrClosed)
}

func TestFooter_CorruptLength(t *testing.T) {
	reg := newRegistry(t)
	registerModels(t, reg)

	w := wiretest.NewWriter()
	writePerson(w, 1, "n")
	w.Int16(4000)
	d := newDecoder(t, reg, w)
	_, err := d.ReadField("name")
	require.ErrorIs(t, err, gridcodec.ErrMalformedStream)
	assert.Equal(t, 0, d.Position())
}

func TestFooter_ReadFieldWithInnerBackReference(t *testing.T) {
	reg := newRegistry(t)
	d, err := reg.RegisterGeneric("org.example.Bag", []gridcodec.GenericLevel{
		{Name: "Bag", Fields: []gridcodec.GenericField{{Name: "items", Kind: gridcodec.KindOther}}},
	})
	require.NoError(t, err)

	// bag=0, list=1, "a"=2
	w := wiretest.NewWriter()
	rec := w.Begin(wire.TagSerializable, d.TypeID, "", 0)
	rec.Variable(func(w *wiretest.Writer) { w.ListHeader(wire.TagArrayList, 2).Str("a").Handle(2) })
	rec.End()
	dec := newDecoder(t, reg, w)

	_, err = dec.ReadField("items")
	require.ErrorIs(t, err, gridcodec.ErrInvalidHandle, "field decoding starts with an empty handle table")
	assert.Equal(t, 0, dec.Position())

	v, err := dec.DecodeNext()
	require.NoError(t, err)
	items, ok := v.(*gridcodec.Object).Field("items")
	require.True(t, ok)
	assert.Equal(t, []any{"a", "a"}, items.(*gridcodec.ArrayList).Elems)
}
