package gridcodec_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/AndrewDonelson/gridcodec"
	"github.com/AndrewDonelson/gridcodec/internal/wire"
	"github.com/AndrewDonelson/gridcodec/internal/wiretest"
)

func TestErrors_Sentinel(t *testing.T) {
	errs := []error{
		gridcodec.ErrMalformedStream,
		gridcodec.ErrUnknownType,
		gridcodec.ErrInvalidHandle,
		gridcodec.ErrReconstructionFailed,
		gridcodec.ErrDelegatedDecodeFailed,
		gridcodec.ErrChecksumMismatch,
		gridcodec.ErrUnhashableKey,
		gridcodec.ErrUnsupportedFooter,
		gridcodec.ErrFieldNotPresent,
		gridcodec.ErrClosed,
		gridcodec.ErrNotActive,
		gridcodec.ErrTypeDuplicate,
		gridcodec.ErrInvalidModel,
		gridcodec.ErrMappingConflict,
		gridcodec.ErrL2Unavailable,
		gridcodec.ErrL3Unavailable,
		gridcodec.ErrRecordNotFound,
		gridcodec.ErrInvalidConfig,
		gridcodec.ErrWriteBehindMaxRetry,
	}
	for _, e := range errs {
		if e == nil {
			t.Fatalf("nil sentinel error")
		}
	}
}

func TestErrors_Is(t *testing.T) {
	assert.ErrorIs(t, gridcodec.ErrFieldNotPresent, gridcodec.ErrUnsupportedFooter)
	assert.NotErrorIs(t, gridcodec.ErrUnsupportedFooter, gridcodec.ErrFieldNotPresent)

	se := &gridcodec.StreamError{Offset: 3, Tag: wire.TagInt, Type: "a.B", Err: errors.New("short")}
	assert.ErrorIs(t, se, gridcodec.ErrMalformedStream)
	assert.Equal(t, "gridcodec: malformed stream at offset 3 (tag int, in a.B): short", se.Error())

	hs := &gridcodec.StreamError{Err: fmt.Errorf("x: %w", gridcodec.ErrInvalidHandle)}
	assert.ErrorIs(t, hs, gridcodec.ErrInvalidHandle)
	assert.NotErrorIs(t, hs, gridcodec.ErrMalformedStream)

	re := &gridcodec.ReconstructionError{Type: "a.B", Cause: gridcodec.ErrChecksumMismatch}
	assert.ErrorIs(t, re, gridcodec.ErrReconstructionFailed)
	assert.ErrorIs(t, re, gridcodec.ErrChecksumMismatch)

	ue := &gridcodec.UnknownTypeError{TypeID: 4, Name: "a.B"}
	assert.ErrorIs(t, ue, gridcodec.ErrUnknownType)
	assert.Contains(t, ue.Error(), `name="a.B"`)

	fe := &gridcodec.FooterError{Field: "f", TypeID: 4, Reason: gridcodec.ErrFieldNotPresent}
	assert.ErrorIs(t, fe, gridcodec.ErrUnsupportedFooter)
	assert.Contains(t, fe.Error(), `"f"`)
}

func TestZapLogger_UnknownTypeWarning(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := gridcodec.NewZapLogger(zap.New(core).Sugar())

	w := wiretest.NewWriter()
	w.Begin(wire.TagSerializable, 31337, "", 0)
	d, err := gridcodec.NewDecoder(w.Bytes(), gridcodec.Config{Resolver: newRegistry(t), Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	_, err = d.DecodeNext()
	assert.ErrorIs(t, err, gridcodec.ErrUnknownType)

	entries := logs.FilterMessage("gridcodec: unknown type").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zap.WarnLevel, entries[0].Level)
		assert.Equal(t, int32(31337), entries[0].ContextMap()["type_id"])
	}
}

func TestZapLogger_NilIsNop(t *testing.T) {
	l := gridcodec.NewZapLogger(nil)
	l.Info("ignored")
	l.Debug("ignored")
	l.Error("ignored", "k", 1)
}
