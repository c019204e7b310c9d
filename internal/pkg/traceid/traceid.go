// Package traceid carries the per-request correlation identifier.
//
// Every request and every logging worker owns a Slot. The slot is never
// shared implicitly: a goroutine that hands work to another goroutine reads
// the id out of its own slot and passes it along as a value, and the receiver
// adopts it into its own slot for the lifetime of that unit of work.
package traceid

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Key is both the inbound header name and the log attribute name.
const Key = "TRACE_ID"

var newID = uuid.NewString

// Slot holds at most one correlation id.
type Slot struct {
	mu sync.RWMutex
	id string
}

func NewSlot() *Slot {
	return &Slot{}
}

// Ensure stores header in the slot exactly as received when it has any
// non-blank content, otherwise a freshly generated id, and returns the stored
// value.
func (s *Slot) Ensure(header string) string {
	id := header
	if strings.TrimSpace(id) == "" {
		id = newID()
	}
	s.Adopt(id)
	return id
}

// Current reads the slot.
func (s *Slot) Current() (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id, s.id != ""
}

// Adopt overwrites the slot with id.
func (s *Slot) Adopt(id string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}

// Clear empties the slot.
func (s *Slot) Clear() {
	s.Adopt("")
}

type slotKey struct{}

// WithSlot attaches slot to ctx.
func WithSlot(ctx context.Context, slot *Slot) context.Context {
	return context.WithValue(ctx, slotKey{}, slot)
}

// SlotFrom returns the slot attached to ctx, or nil.
func SlotFrom(ctx context.Context) *Slot {
	if ctx == nil {
		return nil
	}
	slot, _ := ctx.Value(slotKey{}).(*Slot)
	return slot
}

// Current reads the slot attached to ctx.
func Current(ctx context.Context) (string, bool) {
	return SlotFrom(ctx).Current()
}
