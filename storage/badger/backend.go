package badger

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: slog.Default(),
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// Txn wraps a read-write BadgerDB transaction and collects commit triggers:
// callbacks that run after, and only after, the transaction commits
// successfully. Triggers run on the committing goroutine in registration
// order.
type Txn struct {
	*badger.Txn
	triggers []func()
}

// OnCommit registers a callback to run after the transaction commits.
// Callbacks are dropped if the transaction is discarded or fails to commit.
func (t *Txn) OnCommit(fn func()) {
	t.triggers = append(t.triggers, fn)
}

// Update executes fn within a read-write transaction. If fn returns nil the
// transaction is committed and any registered commit triggers fire; on error
// the transaction is discarded and no triggers run.
func (b *Backend) Update(fn func(tx *Txn) error) error {
	btx := b.db.NewTransaction(true)
	defer btx.Discard()

	tx := &Txn{Txn: btx}
	if err := fn(tx); err != nil {
		return err
	}
	if err := btx.Commit(); err != nil {
		return err
	}
	for _, trigger := range tx.triggers {
		trigger()
	}
	return nil
}

// View executes fn within a read-only snapshot transaction.
func (b *Backend) View(fn func(tx *badger.Txn) error) error {
	tx := b.db.NewTransaction(false)
	defer tx.Discard()
	return fn(tx)
}

// NewReadTxn returns a read-only snapshot transaction. The caller owns it
// and must Discard it when finished; long-lived query iterators hold one of
// these for their whole lifetime.
func (b *Backend) NewReadTxn() *badger.Txn {
	return b.db.NewTransaction(false)
}

// Sync flushes pending writes to disk without running any commit triggers.
// A no-op for in-memory databases.
func (b *Backend) Sync() error {
	if b.db.Opts().InMemory {
		return nil
	}
	return b.db.Sync()
}
