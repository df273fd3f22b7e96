package buffer

// LruReplacer evicts the frame that was unpinned least recently.
type LruReplacer struct {
	unpinned []int
	pinned   map[int]struct{}
	size     int
}

var _ IReplacer = &LruReplacer{}

func (l *LruReplacer) NumPinnedPages() int {
	return len(l.pinned)
}

func (l *LruReplacer) Pin(frameId int) {
	if idx, ok := l.findFrameId(frameId); ok {
		l.unpinned = append(l.unpinned[:idx], l.unpinned[idx+1:]...)
	}
	l.pinned[frameId] = struct{}{}
}

func (l *LruReplacer) Unpin(frameId int) {
	if _, ok := l.pinned[frameId]; !ok {
		panic("unpinning a page which is not pinned")
	}

	delete(l.pinned, frameId)
	l.unpinned = append(l.unpinned, frameId)
}

func (l *LruReplacer) ChooseVictim() (frameId int, err error) {
	if len(l.unpinned) == 0 {
		return 0, errNoVictim
	}

	victim := l.unpinned[0]
	l.unpinned = l.unpinned[1:]
	return victim, nil
}

func (l *LruReplacer) GetSize() int {
	return l.size
}

func (l *LruReplacer) findFrameId(frameId int) (int, bool) {
	for idx, curr := range l.unpinned {
		if curr == frameId {
			return idx, true
		}
	}
	return 0, false
}

func NewLruReplacer(poolSize int) *LruReplacer {
	return &LruReplacer{
		unpinned: make([]int, 0, poolSize),
		pinned:   make(map[int]struct{}),
		size:     poolSize,
	}
}
