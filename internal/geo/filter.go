/*
File: internal/geo/filter.go
Description: Holds each connection's optional viewport (bounding box) and
decides whether a positional message is deliverable to a given connection.
*/
// Package geo implements the hub's spatial filtering.
package geo

import (
	"errors"
	"sync"

	"github.com/tinywideclouds/go-telemetry-hub/pkg/telemetry"
)

// ErrInvalidBounds reports a box whose south-west corner exceeds its
// north-east corner on either axis.
var ErrInvalidBounds = errors.New("geo: south-west corner must not exceed north-east corner")

// Point is a geographic coordinate (WGS 84).
type Point struct {
	Lat float64
	Lng float64
}

// BoundingBox is a client-declared rectangular viewport. Absence of a box
// means "unfiltered".
type BoundingBox struct {
	NorthEast Point
	SouthWest Point
}

// Validate enforces corner ordering. Boxes crossing the antimeridian would
// need SW.Lng > NE.Lng and are rejected here rather than given an undefined
// meaning.
func (b BoundingBox) Validate() error {
	if b.SouthWest.Lat > b.NorthEast.Lat || b.SouthWest.Lng > b.NorthEast.Lng {
		return ErrInvalidBounds
	}
	return nil
}

// contains is the inclusive rectangle test.
func (b BoundingBox) contains(lat, lng float64) bool {
	return b.SouthWest.Lat <= lat && lat <= b.NorthEast.Lat &&
		b.SouthWest.Lng <= lng && lng <= b.NorthEast.Lng
}

// Filter records at most one box per connection. Each box is owned by exactly
// one connection at a time and discarded when that connection goes away.
type Filter struct {
	mu    sync.RWMutex
	boxes map[string]BoundingBox
}

// NewFilter creates an empty filter.
func NewFilter() *Filter {
	return &Filter{boxes: make(map[string]BoundingBox)}
}

// Set validates the box and replaces any prior box for the connection. On
// validation failure the prior box, if any, is left intact.
func (f *Filter) Set(connID string, box BoundingBox) error {
	if err := box.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	f.boxes[connID] = box
	f.mu.Unlock()
	return nil
}

// Remove clears the connection's box. Called on disconnect; idempotent.
func (f *Filter) Remove(connID string) {
	f.mu.Lock()
	delete(f.boxes, connID)
	f.mu.Unlock()
}

// ShouldDeliver decides whether msg may be written to the connection. With no
// box recorded the answer is always true. With a box, a message lacking either
// coordinate is excluded (fail closed); otherwise the inclusive rectangle test
// applies. O(1) per (message, connection) pair.
func (f *Filter) ShouldDeliver(msg *telemetry.Message, connID string) bool {
	f.mu.RLock()
	box, ok := f.boxes[connID]
	f.mu.RUnlock()

	if !ok {
		return true
	}
	if !msg.HasPosition() {
		return false
	}
	return box.contains(*msg.Lat, *msg.Lng)
}
