package gridcodec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AndrewDonelson/gridcodec"
	"github.com/AndrewDonelson/gridcodec/internal/wiretest"
)

// ── Shared helpers ───────────────────────────────────────────────────────────

func newRegistry(t testing.TB) *gridcodec.Registry {
	t.Helper()
	return gridcodec.NewRegistry(gridcodec.RegistryOptions{})
}

func newDecoder(t *testing.T, r gridcodec.SchemaResolver, w *wiretest.Writer) *gridcodec.Decoder {
	t.Helper()
	d, err := gridcodec.NewDecoder(w.Bytes(), gridcodec.Config{Resolver: r})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// decodeOne decodes the single value in w and checks nothing is left over.
func decodeOne(t *testing.T, r gridcodec.SchemaResolver, w *wiretest.Writer) (any, *gridcodec.Decoder) {
	t.Helper()
	d := newDecoder(t, r, w)
	v, err := d.DecodeNext()
	require.NoError(t, err)
	require.False(t, d.More(), "trailing bytes at %d of %d", d.Position(), w.Len())
	return v, d
}
