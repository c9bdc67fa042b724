package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/openvfx/gopublish/pkg/log"
	"github.com/sourcegraph/conc/pool"
)

// Mode selects how a file reaches its destination.
type Mode string

const (
	ModeCopy     Mode = "copy"
	ModeHardlink Mode = "hardlink"
)

const backupSuffix = ".bak"

// DuplicateDestinationError is returned when two different sources are
// queued for the same destination.
type DuplicateDestinationError struct {
	Destination string
}

func (e *DuplicateDestinationError) Error() string {
	return fmt.Sprintf(
		"destination %s is already queued from a different source",
		e.Destination)
}

// Item is a single queued transfer.
type Item struct {
	Source      string
	Destination string
	Mode        Mode
}

// Options configures a transaction.
type Options struct {
	// AllowReplacements permits queueing a new source for an already
	// queued destination, replacing the earlier item.
	AllowReplacements bool
	// Workers caps the transfer pool size. The effective size never
	// exceeds the number of queued items.
	Workers int
}

// Transaction stages file transfers so they can be processed together
// and rolled back as one unit. Existing destination files are moved
// aside before any transfer starts, so a failure mid-way can restore
// the previous state.
type Transaction struct {
	log  log.LoggerService
	opts Options

	mutex       sync.Mutex
	queue       map[string]Item
	order       []string
	transferred []string
	backups     map[string]string
}

func NewTransaction(logger log.LoggerService, opts Options) *Transaction {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	return &Transaction{
		log:     logger.Named("transfer"),
		opts:    opts,
		queue:   make(map[string]Item),
		backups: make(map[string]string),
	}
}

// Add queues a transfer. Queueing the same source and destination
// twice is a no-op; a different source for a queued destination is an
// error unless replacements are allowed.
func (t *Transaction) Add(source, destination string, mode Mode) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	source = filepath.Clean(source)
	destination = filepath.Clean(destination)

	if existing, ok := t.queue[destination]; ok {
		if existing.Source == source {
			return nil
		}
		if !t.opts.AllowReplacements {
			return &DuplicateDestinationError{Destination: destination}
		}
		t.log.Debug("Replacing queued source for %s", destination)
	} else {
		t.order = append(t.order, destination)
	}
	t.queue[destination] = Item{
		Source:      source,
		Destination: destination,
		Mode:        mode,
	}
	return nil
}

// Len returns the number of queued transfers.
func (t *Transaction) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.queue)
}

// Transferred returns the destinations written so far, in completion
// order.
func (t *Transaction) Transferred() []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return append([]string(nil), t.transferred...)
}

// Process backs up existing destinations on a bounded worker pool,
// waits for every backup to finish, then runs all transfers on a pool
// of the same size. On error the caller decides between Rollback and
// retrying; nothing is cleaned up here.
func (t *Transaction) Process(ctx context.Context) error {
	items := t.pending()

	remaining := make([]Item, 0, len(items))
	for _, item := range items {
		if samePaths(item.Source, item.Destination) {
			t.log.Debug("Source and destination are the same file, skipping %s",
				item.Destination)
			continue
		}
		remaining = append(remaining, item)
	}

	workers := t.opts.Workers
	if len(remaining) < workers {
		workers = len(remaining)
	}
	if workers == 0 {
		return nil
	}

	// Every backup completes before the first transfer starts, so a
	// transfer cannot overwrite a file another item still has to move
	// aside.
	backups := pool.New().
		WithErrors().
		WithContext(ctx).
		WithMaxGoroutines(workers)

	for _, item := range remaining {
		backups.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return t.backup(item.Destination)
		})
	}
	if err := backups.Wait(); err != nil {
		return err
	}

	transfers := pool.New().
		WithErrors().
		WithContext(ctx).
		WithMaxGoroutines(workers)

	for _, item := range remaining {
		transfers.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := t.transfer(item); err != nil {
				return err
			}
			t.mutex.Lock()
			t.transferred = append(t.transferred, item.Destination)
			t.mutex.Unlock()
			return nil
		})
	}

	return transfers.Wait()
}

// backup moves an existing destination aside and records the mapping
// for Finalize and Rollback.
func (t *Transaction) backup(destination string) error {
	if _, err := os.Stat(destination); err != nil {
		return nil
	}
	backup := destination + backupSuffix
	if err := os.Rename(destination, backup); err != nil {
		return fmt.Errorf("failed to back up %s: %w", destination, err)
	}
	t.mutex.Lock()
	t.backups[destination] = backup
	t.mutex.Unlock()
	return nil
}

// Finalize removes backup files left behind by Process. Failures are
// logged and skipped so one stale backup does not fail the publish.
func (t *Transaction) Finalize() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for destination, backup := range t.backups {
		if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
			t.log.Warn("Failed to remove backup %s: %v", backup, err)
			continue
		}
		delete(t.backups, destination)
	}
}

// Rollback deletes every transferred file and restores backups. All
// entries are attempted; the last error encountered is returned.
func (t *Transaction) Rollback() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var lastErr error
	for _, destination := range t.transferred {
		if err := os.Remove(destination); err != nil && !os.IsNotExist(err) {
			t.log.Error("Failed to remove %s during rollback: %v", destination, err)
			lastErr = err
		}
	}
	t.transferred = nil

	for destination, backup := range t.backups {
		if err := os.Rename(backup, destination); err != nil {
			t.log.Error("Failed to restore backup for %s: %v", destination, err)
			lastErr = err
			continue
		}
		delete(t.backups, destination)
	}
	return lastErr
}

func (t *Transaction) pending() []Item {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	items := make([]Item, 0, len(t.order))
	for _, destination := range t.order {
		items = append(items, t.queue[destination])
	}
	return items
}

func (t *Transaction) transfer(item Item) error {
	if err := os.MkdirAll(filepath.Dir(item.Destination), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w",
			item.Destination, err)
	}

	switch item.Mode {
	case ModeHardlink:
		if err := os.Link(item.Source, item.Destination); err != nil {
			return fmt.Errorf("failed to hardlink %s: %w", item.Source, err)
		}
		t.log.Debug("Hardlinked %s to %s", item.Source, item.Destination)
		return nil
	case ModeCopy, "":
		size, err := copyFile(item.Source, item.Destination)
		if err != nil {
			return fmt.Errorf("failed to copy %s: %w", item.Source, err)
		}
		t.log.Debug("Copied %s to %s (%s)",
			item.Source, item.Destination, humanize.Bytes(uint64(size)))
		return nil
	default:
		return fmt.Errorf("unknown transfer mode %q", item.Mode)
	}
}

func copyFile(source, destination string) (int64, error) {
	in, err := os.Open(source)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}

	out, err := os.OpenFile(destination,
		os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	size, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return 0, err
	}
	return size, out.Close()
}

// samePaths reports whether two paths point at the same file on disk.
func samePaths(a, b string) bool {
	infoA, err := os.Stat(a)
	if err != nil {
		return false
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}
