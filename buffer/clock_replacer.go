package buffer

const (
	PinnedBit       uint8 = 1 << 7
	SecondChanceBit uint8 = 1 << 6
)

type counter struct {
	bits uint8
}

var _ IReplacer = &ClockReplacer{}

// ClockReplacer approximates lru. Every pin gives the frame a second chance that the clock hand takes back on its
// first pass.
type ClockReplacer struct {
	frames         []counter
	victimIterator int
}

func (c *ClockReplacer) Pin(frameId int) {
	c.frames[frameId].bits |= PinnedBit
	c.frames[frameId].bits |= SecondChanceBit
}

func (c *ClockReplacer) Unpin(frameId int) {
	if (c.frames[frameId].bits & PinnedBit) == 0 {
		panic("unpinning a page which is already unpinned or not pinned at all")
	}

	c.frames[frameId].bits &= ^PinnedBit
}

func (c *ClockReplacer) ChooseVictim() (frameId int, err error) {
	if c.GetSize() == 0 {
		return 0, errNoVictim
	}

	st := c.victimIterator
	pass := 0
	for {
		f := c.frames[c.victimIterator]
		if f.bits&PinnedBit == 0 {
			if f.bits&SecondChanceBit > 0 {
				c.frames[c.victimIterator].bits &= ^SecondChanceBit
			} else {
				victim := c.victimIterator
				c.victimIterator = (c.victimIterator + 1) % c.GetSize()
				return victim, nil
			}
		}

		c.victimIterator = (c.victimIterator + 1) % c.GetSize()

		if c.victimIterator == st {
			if pass == 1 {
				return 0, errNoVictim
			}
			pass++
		}
	}
}

func (c *ClockReplacer) GetSize() int {
	return len(c.frames)
}

func (c *ClockReplacer) NumPinnedPages() int {
	i := 0
	for _, frame := range c.frames {
		if frame.bits&PinnedBit > 0 {
			i++
		}
	}

	return i
}

func NewClockReplacer(size int) *ClockReplacer {
	return &ClockReplacer{
		frames: make([]counter, size),
	}
}
