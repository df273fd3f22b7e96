package disk

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"novalite/common"
	"novalite/freelist"
	"novalite/logger"
)

var _ Pager = &Manager{}

// Manager is the file backed Pager. Page n lives at byte offset n*PageSize of a single database file whose length is
// always a multiple of PageSize.
//
// Manager is not safe for concurrent use and no two managers should open the same file.
type Manager struct {
	file       *os.File
	filename   string
	nextPageId common.PageId
	freeList   *freelist.List
	log        *slog.Logger

	// syncOnWrite makes every WritePage data-sync the file. It should normally be false and callers should Flush
	// at their own commit points, setting it trades write throughput for not losing pages on power loss.
	syncOnWrite bool
}

type Option func(m *Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

func WithSyncOnWrite(enabled bool) Option {
	return func(m *Manager) {
		m.syncOnWrite = enabled
	}
}

// NewDiskManager opens the database file, creating it when it does not exist. created reports whether the file was
// empty, in which case a zeroed meta page has been written and synced before returning.
func NewDiskManager(file string, opts ...Option) (m *Manager, created bool, err error) {
	d := &Manager{
		filename: file,
		freeList: freelist.NewFreeList(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.Get()
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, false, common.IoError(errors.Wrapf(err, "opening %s", file), "open")
	}

	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()

	stats, err := f.Stat()
	if err != nil {
		return nil, false, common.IoError(errors.Wrapf(err, "stat %s", file), "open")
	}

	filesize := stats.Size()
	d.log.Info("db is initializing", "file", file, "size", filesize)

	if filesize%int64(common.PageSize) != 0 {
		return nil, false, common.Corruption(fmt.Sprintf("file size %d is not a multiple of page size %d", filesize, common.PageSize))
	}

	d.file = f
	if filesize == 0 {
		// a new db file, page 0 is reserved for metadata so allocation starts from 1.
		if err := d.writeZeroPage(common.MetaPageId); err != nil {
			return nil, false, err
		}
		if err := datasync(f); err != nil {
			return nil, false, common.IoError(errors.Wrapf(err, "syncing meta page of %s", file), "open")
		}

		d.nextPageId = 1
		d.log.Info("meta page is written", "file", file)
		return d, true, nil
	}

	pageCount := filesize / int64(common.PageSize)
	if pageCount > int64(common.InvalidPageId) {
		return nil, false, common.Corruption(fmt.Sprintf("file has %d pages, more than page ids can address", pageCount))
	}
	d.nextPageId = common.PageId(pageCount)

	return d, false, nil
}

func (d *Manager) ReadPage(pid common.PageId, out []byte) error {
	if err := checkPageBuf(out); err != nil {
		return err
	}
	if err := d.checkAllocated(pid); err != nil {
		return err
	}

	offset, err := pid.Offset()
	if err != nil {
		return err
	}

	n, err := d.file.ReadAt(out, offset)
	if n != common.PageSize {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return common.IoError(errors.Wrapf(err, "reading page %d, got %d bytes", pid, n), "read page")
	}

	return nil
}

func (d *Manager) WritePage(pid common.PageId, buf []byte) error {
	if err := checkPageBuf(buf); err != nil {
		return err
	}
	if err := d.checkAllocated(pid); err != nil {
		return err
	}

	offset, err := pid.Offset()
	if err != nil {
		return err
	}

	n, err := d.file.WriteAt(buf, offset)
	if err != nil {
		return common.IoError(errors.Wrapf(err, "writing page %d", pid), "write page")
	}
	if n != common.PageSize {
		return common.IoError(errors.Wrapf(io.ErrShortWrite, "writing page %d, wrote %d bytes", pid, n), "write page")
	}

	if d.syncOnWrite {
		return d.Flush()
	}

	return nil
}

func (d *Manager) AllocPage() (common.PageId, error) {
	// if pop free list is successful return popped page
	if p, ok := d.freeList.Pop(); ok {
		d.log.Debug("page is reused from freelist", "page_id", p)
		return p, nil
	}

	// else grow the file by one page
	if d.nextPageId == common.InvalidPageId {
		return common.InvalidPageId, common.NoSpace("page ids are exhausted")
	}

	pid := d.nextPageId
	if err := d.writeZeroPage(pid); err != nil {
		return common.InvalidPageId, err
	}
	d.nextPageId++

	d.log.Debug("page is allocated", "page_id", pid)
	return pid, nil
}

// FreePage appends the page to the freelist. Freeing a page that is already free is a no-op.
func (d *Manager) FreePage(pid common.PageId) error {
	if err := checkFreeable(pid, d.nextPageId); err != nil {
		return err
	}

	if d.freeList.Add(pid) {
		d.log.Debug("page is freed", "page_id", pid)
	}
	return nil
}

func (d *Manager) FreePages() []common.PageId {
	return d.freeList.Snapshot()
}

// Flush syncs file data but not file metadata. That is the durability this layer promises, anything stronger is the
// job of a write ahead log.
func (d *Manager) Flush() error {
	if err := datasync(d.file); err != nil {
		return common.IoError(errors.Wrapf(err, "syncing %s", d.filename), "flush")
	}
	return nil
}

func (d *Manager) NumPages() (uint64, error) {
	stats, err := d.file.Stat()
	if err != nil {
		return 0, common.IoError(errors.Wrapf(err, "stat %s", d.filename), "num pages")
	}
	return uint64(stats.Size()) / common.PageSize, nil
}

func (d *Manager) Close() error {
	if err := d.file.Close(); err != nil {
		return common.IoError(errors.Wrapf(err, "closing %s", d.filename), "close")
	}
	return nil
}

func (d *Manager) checkAllocated(pid common.PageId) error {
	if uint64(pid) >= uint64(d.nextPageId) {
		return common.Corruption(fmt.Sprintf("page %d is beyond the end of the file, file has %d pages", pid, d.nextPageId))
	}
	return nil
}

func (d *Manager) writeZeroPage(pid common.PageId) error {
	offset, err := pid.Offset()
	if err != nil {
		return err
	}

	if _, err := d.file.WriteAt(make([]byte, common.PageSize), offset); err != nil {
		return common.IoError(errors.Wrapf(err, "writing zero page %d", pid), "grow file")
	}
	return nil
}

func checkPageBuf(buf []byte) error {
	if len(buf) != common.PageSize {
		return common.InvalidArgument(fmt.Sprintf("page buffer length %d, want %d", len(buf), common.PageSize))
	}
	return nil
}

func checkFreeable(pid, nextPageId common.PageId) error {
	if pid == common.MetaPageId {
		return common.InvalidArgument("meta page can not be freed")
	}
	if !pid.IsValid() || pid >= nextPageId {
		return common.InvalidArgument(fmt.Sprintf("page %d is not allocated", pid))
	}
	return nil
}
