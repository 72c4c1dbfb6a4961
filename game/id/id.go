// Package id allocates the numeric identifiers shared by clients and games.
package id

import (
	"strconv"
	"sync/atomic"
)

// ID identifies a client or a game. Clients and games draw from the same
// allocator, so an ID is unique across both.
type ID int64

// String implements fmt.Stringer
func (i ID) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// Allocator hands out monotonically increasing IDs starting at 1.
// The zero value is ready to use and safe for concurrent callers.
type Allocator struct {
	last atomic.Int64
}

// NewAllocator creates an allocator whose first ID is start+1
func NewAllocator(start ID) *Allocator {
	a := &Allocator{}
	a.last.Store(int64(start))
	return a
}

// Next returns a fresh ID
func (a *Allocator) Next() ID {
	return ID(a.last.Add(1))
}

// Parse converts the decimal form of an ID back into an ID
func Parse(s string) (ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(n), nil
}
