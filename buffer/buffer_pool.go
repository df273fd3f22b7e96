package buffer

import (
	"fmt"
	"log/slog"
	"slices"

	"novalite/common"
	"novalite/disk"
	"novalite/disk/pages"
	"novalite/logger"
)

// Stats counts how the pool served page requests.
type Stats struct {
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	WriteBacks uint64
}

type frame struct {
	page *pages.RawPage
}

var _ disk.Pager = &BufferPool{}

// BufferPool is a write back page cache in front of another Pager and is a Pager itself. Writes only reach the
// underlying pager when a dirty frame is evicted, flushed or closed.
//
// Callers never hold a frame: ReadPage and WritePage copy between the caller's buffer and the frame, so a frame is
// pinned only for the duration of a single call.
type BufferPool struct {
	poolSize    int
	frames      []*frame
	pageMap     map[common.PageId]int // page id => frame index which keeps that page
	emptyFrames []int                 // list of indexes that points to empty frames in the pool
	Replacer    IReplacer
	pager       disk.Pager
	stats       Stats
	log         *slog.Logger
}

func NewBufferPool(pager disk.Pager, poolSize int, policy string, l *slog.Logger) (*BufferPool, error) {
	if poolSize < 1 {
		return nil, common.InvalidArgument(fmt.Sprintf("pool size %d, want at least 1", poolSize))
	}

	replacer, ok := NewReplacer(policy, poolSize)
	if !ok {
		return nil, common.InvalidArgument(fmt.Sprintf("unknown replacement policy %q", policy))
	}

	if l == nil {
		l = logger.Get()
	}

	emptyFrames := make([]int, poolSize)
	for i := 0; i < poolSize; i++ {
		emptyFrames[i] = i
	}

	return &BufferPool{
		poolSize:    poolSize,
		frames:      make([]*frame, poolSize),
		pageMap:     map[common.PageId]int{},
		emptyFrames: emptyFrames,
		Replacer:    replacer,
		pager:       pager,
		log:         l,
	}, nil
}

func (b *BufferPool) ReadPage(pid common.PageId, out []byte) error {
	if len(out) != common.PageSize {
		return common.InvalidArgument(fmt.Sprintf("page buffer length %d, want %d", len(out), common.PageSize))
	}

	frameIdx, err := b.fetch(pid)
	if err != nil {
		return err
	}

	b.Replacer.Pin(frameIdx)
	copy(out, b.frames[frameIdx].page.GetData())
	b.Replacer.Unpin(frameIdx)

	return nil
}

// WritePage loads the page first when it is not cached so that writes to unallocated pages fail the same way they
// fail on the underlying pager.
func (b *BufferPool) WritePage(pid common.PageId, buf []byte) error {
	if len(buf) != common.PageSize {
		return common.InvalidArgument(fmt.Sprintf("page buffer length %d, want %d", len(buf), common.PageSize))
	}

	frameIdx, err := b.fetch(pid)
	if err != nil {
		return err
	}

	b.Replacer.Pin(frameIdx)
	p := b.frames[frameIdx].page
	copy(p.GetData(), buf)
	p.SetDirty()
	b.Replacer.Unpin(frameIdx)

	return nil
}

func (b *BufferPool) AllocPage() (common.PageId, error) {
	return b.pager.AllocPage()
}

// FreePage hands the page to the underlying freelist, then writes it back if it is dirty and drops it from the pool.
func (b *BufferPool) FreePage(pid common.PageId) error {
	if err := b.pager.FreePage(pid); err != nil {
		return err
	}

	if frameIdx, ok := b.pageMap[pid]; ok {
		if err := b.writeBack(frameIdx); err != nil {
			return err
		}
		b.drop(frameIdx)
	}

	return nil
}

func (b *BufferPool) FreePages() []common.PageId {
	return b.pager.FreePages()
}

// Flush writes every dirty page back in page id order and flushes the underlying pager.
func (b *BufferPool) Flush() error {
	if err := b.writeBackAll(); err != nil {
		return err
	}

	return b.pager.Flush()
}

func (b *BufferPool) NumPages() (uint64, error) {
	return b.pager.NumPages()
}

// Close writes dirty pages back and closes the underlying pager without syncing it.
func (b *BufferPool) Close() error {
	if err := b.writeBackAll(); err != nil {
		return err
	}

	b.log.Debug("buffer pool is closed", "hits", b.stats.Hits, "misses", b.stats.Misses, "evictions", b.stats.Evictions)
	return b.pager.Close()
}

func (b *BufferPool) Stats() Stats {
	return b.stats
}

// EmptyFrameSize returns the number empty frames which does not hold data of any physical page
func (b *BufferPool) EmptyFrameSize() int {
	return len(b.emptyFrames)
}

// fetch returns the frame keeping pid, reading it from the underlying pager on a miss.
func (b *BufferPool) fetch(pid common.PageId) (int, error) {
	if frameIdx, ok := b.pageMap[pid]; ok {
		b.stats.Hits++
		return frameIdx, nil
	}
	b.stats.Misses++

	frameIdx := b.reserveFrame()
	if frameIdx < 0 {
		victimIdx, err := b.evictVictim()
		if err != nil {
			return 0, err
		}
		frameIdx = victimIdx
	}

	if b.frames[frameIdx] == nil {
		b.frames[frameIdx] = &frame{pages.NewRawPage(pid)}
	}

	p := b.frames[frameIdx].page
	p.Reset(pid)
	if err := b.pager.ReadPage(pid, p.GetData()); err != nil {
		p.Reset(common.InvalidPageId)
		b.unReserveFrame(frameIdx)
		return 0, err
	}

	b.pageMap[pid] = frameIdx
	return frameIdx, nil
}

// evictVictim chooses a victim page, writes its data back if it is dirty and returns emptied frame's index. On error
// the victim stays in the pool.
func (b *BufferPool) evictVictim() (int, error) {
	victimFrameIdx, err := b.Replacer.ChooseVictim()
	if err != nil {
		return 0, common.NoSpace(fmt.Sprintf("no frame can be evicted: %v", err))
	}

	if err := b.writeBack(victimFrameIdx); err != nil {
		// give the frame back to the replacer
		b.Replacer.Pin(victimFrameIdx)
		b.Replacer.Unpin(victimFrameIdx)
		return 0, err
	}

	victimPageId := b.frames[victimFrameIdx].page.GetPageId()
	delete(b.pageMap, victimPageId)
	b.stats.Evictions++

	b.log.Debug("page is evicted", "page_id", victimPageId, "frame", victimFrameIdx)
	return victimFrameIdx, nil
}

func (b *BufferPool) writeBack(frameIdx int) error {
	p := b.frames[frameIdx].page
	if !p.IsDirty() {
		return nil
	}

	if err := b.pager.WritePage(p.GetPageId(), p.GetData()); err != nil {
		return err
	}

	p.SetClean()
	b.stats.WriteBacks++
	return nil
}

func (b *BufferPool) writeBackAll() error {
	pids := make([]common.PageId, 0, len(b.pageMap))
	for pid := range b.pageMap {
		pids = append(pids, pid)
	}
	slices.Sort(pids)

	for _, pid := range pids {
		if err := b.writeBack(b.pageMap[pid]); err != nil {
			return err
		}
	}

	return nil
}

// drop removes the frame's page from the pool and returns the frame to the empty frames. Pinning it keeps the
// replacer from choosing it until it is reused.
func (b *BufferPool) drop(frameIdx int) {
	p := b.frames[frameIdx].page
	delete(b.pageMap, p.GetPageId())
	p.Reset(common.InvalidPageId)

	b.Replacer.Pin(frameIdx)
	b.unReserveFrame(frameIdx)
}

func (b *BufferPool) reserveFrame() int {
	if len(b.emptyFrames) > 0 {
		emptyFrameIdx := b.emptyFrames[0]
		b.emptyFrames = b.emptyFrames[1:]
		return emptyFrameIdx
	}

	return -1
}

func (b *BufferPool) unReserveFrame(idx int) {
	b.emptyFrames = append(b.emptyFrames, idx)
}
