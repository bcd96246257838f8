package gridcodec_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AndrewDonelson/gridcodec"
	"github.com/AndrewDonelson/gridcodec/internal/wire"
	"github.com/AndrewDonelson/gridcodec/internal/wiretest"
)

// ── Model helpers ────────────────────────────────────────────────────────────

const (
	personClass = "org.example.Person"
	moneyClass  = "org.example.Money"
	pointClass  = "org.example.Point"
	nodeClass   = "org.example.Node"
	colorClass  = "org.example.Color"
)

type Person struct {
	ID   int32
	Name string
	Tags *gridcodec.Set
}

type Money struct {
	Amount   int64
	Currency string
	built    bool
}

func (m *Money) ReadExternal(in *gridcodec.ObjectInput) error {
	amt, err := in.ReadLong()
	if err != nil {
		return err
	}
	cur, err := in.ReadObject()
	if err != nil {
		return err
	}
	s, ok := cur.(string)
	if !ok {
		return errors.New("currency is not a string")
	}
	m.Amount, m.Currency = amt, s
	return nil
}

type Point struct {
	X, Y  int32
	Label string
}

func (p *Point) UnmarshalFields(r *gridcodec.FieldReader) error {
	var err error
	if p.X, err = r.Int("x", -1); err != nil {
		return err
	}
	if p.Y, err = r.Int("y", -1); err != nil {
		return err
	}
	v, err := r.Object("label", "unnamed")
	if err != nil {
		return err
	}
	p.Label = v.(string)
	return nil
}

type Node struct {
	Name string
	Next *Node
}

func registerPerson(t testing.TB, reg *gridcodec.Registry, opts ...gridcodec.TypeOption) int32 {
	t.Helper()
	d, err := reg.RegisterType(&Person{}, append([]gridcodec.TypeOption{gridcodec.WithName(personClass)}, opts...)...)
	require.NoError(t, err)
	return d.TypeID
}

func registerModels(t testing.TB, reg *gridcodec.Registry) {
	t.Helper()
	registerPerson(t, reg)
	_, err := reg.RegisterType(&Money{}, gridcodec.WithName(moneyClass),
		gridcodec.WithConstructor(func() any { return &Money{built: true} }))
	require.NoError(t, err)
	_, err = reg.RegisterType(&Point{}, gridcodec.WithName(pointClass))
	require.NoError(t, err)
	_, err = reg.RegisterType(&Node{}, gridcodec.WithName(nodeClass), gridcodec.WithoutFooter())
	require.NoError(t, err)
	_, err = reg.RegisterEnum(colorClass, []any{"RED", "GREEN", "BLUE"})
	require.NoError(t, err)
}

// writePerson writes a person record with a footer: id is fixed, name and
// tags are variable.
func writePerson(w *wiretest.Writer, id int32, name string, tags ...string) *wiretest.Record {
	rec := w.Begin(wire.TagSerializable, gridcodec.TypeID(personClass), "", 0)
	rec.Fixed(func(w *wiretest.Writer) { w.Int32(id) })
	rec.Variable(func(w *wiretest.Writer) { w.Str(name) })
	rec.Variable(func(w *wiretest.Writer) {
		if tags == nil {
			w.Null()
			return
		}
		w.MapHeader(wire.TagHashSet, int32(len(tags)), 0.75, false)
		for _, s := range tags {
			w.Str(s)
		}
	})
	return rec
}
