package traceid

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureKeepsInboundHeader(t *testing.T) {
	slot := NewSlot()
	id := slot.Ensure("abc-123")
	assert.Equal(t, "abc-123", id)

	got, ok := slot.Current()
	assert.True(t, ok)
	assert.Equal(t, "abc-123", got)
}

func TestEnsureStoresHeaderVerbatim(t *testing.T) {
	slot := NewSlot()
	assert.Equal(t, " abc-123", slot.Ensure(" abc-123"))
	got, _ := slot.Current()
	assert.Equal(t, " abc-123", got)
}

func TestEnsureGeneratesWhenAbsent(t *testing.T) {
	first := NewSlot().Ensure("")
	second := NewSlot().Ensure("   ")
	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
}

func TestClearEmptiesSlot(t *testing.T) {
	slot := NewSlot()
	slot.Adopt("abc")
	slot.Clear()
	_, ok := slot.Current()
	assert.False(t, ok)
}

func TestNilSlotIsSafe(t *testing.T) {
	var slot *Slot
	slot.Adopt("x")
	slot.Clear()
	_, ok := slot.Current()
	assert.False(t, ok)

	_, ok = Current(context.Background())
	assert.False(t, ok)
}

func TestSlotsAreIndependent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slot := NewSlot()
			ctx := WithSlot(context.Background(), slot)
			id := slot.Ensure("")
			got, _ := Current(ctx)
			assert.Equal(t, id, got)
			slot.Clear()
		}()
	}
	wg.Wait()
}

func TestHandlerAddsTraceID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil)))

	slot := NewSlot()
	slot.Adopt("abc-123")
	log.InfoContext(WithSlot(context.Background(), slot), "hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc-123", line[Key])

	buf.Reset()
	log.Info("no slot")
	line = map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	_, present := line[Key]
	assert.False(t, present)
}
