package db

import (
	"errors"
	"fmt"
	"log/slog"

	"novalite/buffer"
	"novalite/common"
	"novalite/config"
	"novalite/disk"
	"novalite/disk/meta"
	"novalite/disk/structures"
	"novalite/logger"
)

// DB ties a pager, its meta page and the table heap together. It is not safe for concurrent use.
type DB struct {
	pager  disk.Pager
	heap   *structures.TableHeap
	log    *slog.Logger
	closed bool
}

// Open opens or creates the database described by cfg. A new database gets its meta page written and flushed before
// Open returns. On an existing one the freelist and heap pages are restored from the meta page.
func Open(cfg config.Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, common.InvalidArgument(err.Error())
	}

	l := logger.Init(cfg.Log.Logger())

	pager, err := openPager(cfg, l)
	if err != nil {
		return nil, err
	}

	d, err := open(pager, l)
	if err != nil {
		_ = pager.Close()
		return nil, err
	}

	return d, nil
}

func openPager(cfg config.Config, l *slog.Logger) (disk.Pager, error) {
	pager, err := openBackend(cfg, l)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Pages == 0 {
		return pager, nil
	}

	pool, err := buffer.NewBufferPool(pager, cfg.Cache.Pages, cfg.Cache.Policy, l)
	if err != nil {
		_ = pager.Close()
		return nil, err
	}

	return pool, nil
}

func openBackend(cfg config.Config, l *slog.Logger) (disk.Pager, error) {
	switch cfg.Backend {
	case config.BackendMem:
		return disk.NewMemPager(), nil
	case config.BackendFile:
		dm, _, err := disk.NewDiskManager(cfg.Path, disk.WithLogger(l), disk.WithSyncOnWrite(cfg.SyncOnWrite))
		if err != nil {
			return nil, err
		}
		return dm, nil
	default:
		return nil, common.InvalidArgument(fmt.Sprintf("unknown backend %q", cfg.Backend))
	}
}

func open(pager disk.Pager, l *slog.Logger) (*DB, error) {
	buf := make([]byte, common.PageSize)
	if err := pager.ReadPage(common.MetaPageId, buf); err != nil {
		return nil, err
	}

	m, err := meta.Read(buf)
	if errors.Is(err, meta.ErrUninitialized) {
		d := &DB{pager: pager, heap: structures.NewTableHeap(pager, nil), log: l}
		if err := d.Sync(); err != nil {
			return nil, err
		}

		l.Info("meta page is initialized")
		return d, nil
	}
	if err != nil {
		return nil, err
	}

	for _, pid := range m.FreeList {
		if err := pager.FreePage(pid); err != nil {
			return nil, common.Corruption(fmt.Sprintf("restoring freelist: %v", err))
		}
	}

	l.Info("db is opened", "heap_pages", len(m.HeapPages), "free_pages", len(m.FreeList))
	return &DB{pager: pager, heap: structures.NewTableHeap(pager, m.HeapPages), log: l}, nil
}

func (d *DB) Heap() *structures.TableHeap {
	return d.heap
}

func (d *DB) Pager() disk.Pager {
	return d.pager
}

// Sync writes the freelist and heap page list into the meta page and flushes the pager. Pages are durable only after
// a successful Sync or Close.
func (d *DB) Sync() error {
	if d.closed {
		return common.InvalidArgument("db is closed")
	}

	m := meta.New()
	m.FreeList = d.pager.FreePages()
	m.HeapPages = d.heap.PageIDs()

	buf := make([]byte, common.PageSize)
	if err := meta.Write(buf, m); err != nil {
		return err
	}
	if err := d.pager.WritePage(common.MetaPageId, buf); err != nil {
		return err
	}

	return d.pager.Flush()
}

// Close syncs and closes the pager. Closing a closed db is a no-op.
func (d *DB) Close() error {
	if d.closed {
		return nil
	}

	if err := d.Sync(); err != nil {
		return err
	}

	d.closed = true
	if err := d.pager.Close(); err != nil {
		return err
	}

	d.log.Info("db is closed")
	return nil
}
