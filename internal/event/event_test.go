package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/zcopy/internal/platform"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{want: "TransferStarted", typ: TransferStarted},
		{want: "StepCompleted", typ: StepCompleted},
		{want: "TransferCompleted", typ: TransferCompleted},
		{want: "TransferShort", typ: TransferShort},
		{want: "TransferFailed", typ: TransferFailed},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Type(999).String())
	assert.Equal(t, "Unknown", Type(0).String())
}

func TestEventZeroValue(t *testing.T) {
	var e Event
	assert.Equal(t, Type(0), e.Type)
	assert.True(t, e.Timestamp.IsZero())
	assert.Zero(t, e.Requested)
	assert.Zero(t, e.Moved)
	require.NoError(t, e.Error)
}

func TestEmitStampsAndSends(t *testing.T) {
	ch := make(chan Event, 1)
	Emit(ch, Event{Type: StepCompleted, Method: platform.Splice, Requested: 8, Moved: 5})

	got := <-ch
	assert.Equal(t, StepCompleted, got.Type)
	assert.Equal(t, platform.Splice, got.Method)
	assert.Equal(t, int64(5), got.Moved)
	assert.False(t, got.Timestamp.IsZero())
}

func TestEmitNeverBlocks(t *testing.T) {
	ch := make(chan Event, 1)
	Emit(ch, Event{Type: TransferStarted})
	Emit(ch, Event{Type: TransferFailed, Error: errors.New("dropped")})

	got := <-ch
	assert.Equal(t, TransferStarted, got.Type)
	assert.Empty(t, ch)
}

func TestEmitNilChannel(t *testing.T) {
	assert.NotPanics(t, func() { Emit(nil, Event{Type: TransferStarted}) })
}
