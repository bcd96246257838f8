package gridcodec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewDonelson/gridcodec"
	"github.com/AndrewDonelson/gridcodec/internal/wire"
	"github.com/AndrewDonelson/gridcodec/internal/wiretest"
)

type rawBlob struct {
	B     int8
	S     int16
	F     float32
	D     float64
	C     gridcodec.Char
	Ok    bool
	Label string
	Pad   []byte
}

func (r *rawBlob) ReadExternal(in *gridcodec.ObjectInput) error {
	var err error
	if r.B, err = in.ReadByte(); err != nil {
		return err
	}
	if r.S, err = in.ReadShort(); err != nil {
		return err
	}
	if r.F, err = in.ReadFloat(); err != nil {
		return err
	}
	if r.D, err = in.ReadDouble(); err != nil {
		return err
	}
	if r.C, err = in.ReadChar(); err != nil {
		return err
	}
	if r.Ok, err = in.ReadBool(); err != nil {
		return err
	}
	if r.Label, err = in.ReadUTF(); err != nil {
		return err
	}
	if err = in.SkipBytes(2); err != nil {
		return err
	}
	r.Pad = make([]byte, 3)
	if err = in.ReadFully(r.Pad); err != nil {
		return err
	}
	// externally managed types have no level to read
	if err := in.DefaultReadObject(); err != gridcodec.ErrNotActive {
		return err
	}
	if _, err := in.ReadFields(); err != gridcodec.ErrNotActive {
		return err
	}
	return nil
}

func TestObjectInput_RawReads(t *testing.T) {
	reg := newRegistry(t)
	d, err := reg.RegisterType(&rawBlob{}, gridcodec.WithName("org.example.Blob"))
	require.NoError(t, err)
	require.Equal(t, gridcodec.ExternallyManaged, d.Strategy)

	w := wiretest.NewWriter()
	w.Begin(wire.TagExternalizable, d.TypeID, "", 0)
	w.Int8(-1).Int16(300).Float32(0.25).Float64(-8).Uint16('Q').Bool(true).UTF("raw")
	w.Raw([]byte{0xEE, 0xEE}).Raw([]byte{1, 2, 3})

	v, _ := decodeOne(t, reg, w)
	assert.Equal(t, &rawBlob{B: -1, S: 300, F: 0.25, D: -8, C: 'Q', Ok: true, Label: "raw", Pad: []byte{1, 2, 3}}, v)
}

func TestObjectInput_TruncatedRead(t *testing.T) {
	reg := newRegistry(t)
	d, err := reg.RegisterType(&rawBlob{}, gridcodec.WithName("org.example.Blob"))
	require.NoError(t, err)

	w := wiretest.NewWriter()
	w.Begin(wire.TagExternalizable, d.TypeID, "", 0)
	w.Int8(1)

	dec := newDecoder(t, reg, w)
	_, err = dec.DecodeNext()
	require.Error(t, err)
	assert.ErrorIs(t, err, gridcodec.ErrReconstructionFailed)
}

type Reading struct {
	Sensor  string
	Value   float64
	Flags   int16
	Precise bool
	Unit    gridcodec.Char
	Seq     int64
	Raw     int8
	Scale   float32
}

func (r *Reading) UnmarshalFields(fr *gridcodec.FieldReader) error {
	if fr.Len() != 8 || fr.Name(0) != "sensor" {
		return gridcodec.ErrUnknownField
	}
	defaulted, err := fr.Defaulted("sensor")
	if err != nil {
		return err
	}
	if defaulted {
		r.Sensor = "?"
	} else {
		r.Sensor = fr.At(0).(string)
	}
	if r.Value, err = fr.Double("value", 0); err != nil {
		return err
	}
	if r.Flags, err = fr.Short("flags", 0); err != nil {
		return err
	}
	if r.Precise, err = fr.Bool("precise", false); err != nil {
		return err
	}
	if r.Unit, err = fr.Char("unit", 0); err != nil {
		return err
	}
	if r.Seq, err = fr.Long("seq", 0); err != nil {
		return err
	}
	if r.Raw, err = fr.Byte("raw", 0); err != nil {
		return err
	}
	r.Scale, err = fr.Float("scale", 0)
	return err
}

func writeReading(w *wiretest.Writer, id int32, sensor func(w *wiretest.Writer)) {
	rec := w.Begin(wire.TagMarshalAware, id, "", 0)
	rec.Variable(sensor)
	rec.Fixed(func(w *wiretest.Writer) { w.Float64(21.5) })
	rec.Fixed(func(w *wiretest.Writer) { w.Int16(3) })
	rec.Fixed(func(w *wiretest.Writer) { w.Bool(true) })
	rec.Fixed(func(w *wiretest.Writer) { w.Uint16('C') })
	rec.Fixed(func(w *wiretest.Writer) { w.Int64(9) })
	rec.Fixed(func(w *wiretest.Writer) { w.Int8(-2) })
	rec.Fixed(func(w *wiretest.Writer) { w.Float32(0.5) })
	rec.End()
}

func TestFieldReader_TypedAccessors(t *testing.T) {
	reg := newRegistry(t)
	d, err := reg.RegisterType(&Reading{}, gridcodec.WithName("org.example.Reading"))
	require.NoError(t, err)

	w := wiretest.NewWriter()
	writeReading(w, d.TypeID, func(w *wiretest.Writer) { w.Str("t1") })
	writeReading(w, d.TypeID, func(w *wiretest.Writer) { w.Null() })

	dec := newDecoder(t, reg, w)
	v, err := dec.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, &Reading{Sensor: "t1", Value: 21.5, Flags: 3, Precise: true, Unit: 'C', Seq: 9, Raw: -2, Scale: 0.5}, v)

	v, err = dec.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, "?", v.(*Reading).Sensor)
	assert.False(t, dec.More())
}

type strictReading struct {
	Sensor string
	Value  float64
	err    error
}

func (r *strictReading) UnmarshalFields(fr *gridcodec.FieldReader) error {
	if _, err := fr.Object("missing", nil); err != nil {
		r.err = err
	}
	_, err := fr.Int("value", 0)
	return err
}

func TestFieldReader_Errors(t *testing.T) {
	reg := newRegistry(t)
	var built *strictReading
	d, err := reg.RegisterType(&strictReading{}, gridcodec.WithName("org.example.Strict"),
		gridcodec.WithConstructor(func() any { built = &strictReading{}; return built }))
	require.NoError(t, err)

	w := wiretest.NewWriter()
	rec := w.Begin(wire.TagMarshalAware, d.TypeID, "", 0)
	rec.Variable(func(w *wiretest.Writer) { w.Str("s") })
	rec.Fixed(func(w *wiretest.Writer) { w.Float64(1) })
	rec.End()

	dec := newDecoder(t, reg, w)
	_, err = dec.DecodeNext()
	require.ErrorIs(t, err, gridcodec.ErrFieldType)
	assert.ErrorIs(t, err, gridcodec.ErrReconstructionFailed)
	require.NotNil(t, built)
	assert.ErrorIs(t, built.err, gridcodec.ErrUnknownField)
}

func TestFieldReader_ApplyInHook(t *testing.T) {
	type Pair struct {
		Left  string
		Right int32
	}
	hook := func(obj any, in *gridcodec.ObjectInput) error {
		r, err := in.ReadFields()
		if err != nil {
			return err
		}
		return r.Apply(obj)
	}
	reg := newRegistry(t)
	d, err := reg.RegisterType(&Pair{}, gridcodec.WithName("org.example.Pair"), gridcodec.WithLevelHook("Pair", hook))
	require.NoError(t, err)

	w := wiretest.NewWriter()
	w.Begin(wire.TagSerializable, d.TypeID, "", 0)
	w.Str("l").Int32(4)

	v, _ := decodeOne(t, reg, w)
	assert.Equal(t, &Pair{Left: "l", Right: 4}, v)
}
