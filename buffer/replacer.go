package buffer

import "errors"

var errNoVictim = errors.New("nothing is unpinned")

// IReplacer decides which frame of the pool is evicted next. A frame is a victim candidate only while it is unpinned.
type IReplacer interface {
	Pin(frameId int)
	Unpin(frameId int)
	ChooseVictim() (frameId int, err error)
	GetSize() int
	NumPinnedPages() int
}

const (
	PolicyClock = "clock"
	PolicyLru   = "lru"
)

// NewReplacer returns the replacer for policy. An empty policy means clock.
func NewReplacer(policy string, size int) (IReplacer, bool) {
	switch policy {
	case "", PolicyClock:
		return NewClockReplacer(size), true
	case PolicyLru:
		return NewLruReplacer(size), true
	default:
		return nil, false
	}
}
