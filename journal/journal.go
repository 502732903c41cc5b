// Package journal persists tag events to SQLite so operators can
// reconstruct what the runtime did to which tag, and when.
package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/edgefoundry/tag-runtime/tag"
)

// Journal is a tag.Observer that records every event it sees. Events
// are buffered and written by a single background goroutine, so the
// observer callback never blocks an entry's worker; when the buffer is
// full the event is dropped and counted rather than stalling tag I/O.
type Journal struct {
	db *sql.DB

	queue  chan message
	stop   chan struct{}
	done   chan struct{}
	closed sync.Once

	mu      sync.Mutex
	dropped int64
}

type message struct {
	evt   tag.Event
	flush chan struct{}
}

// Record is one persisted event row.
type Record struct {
	ID      string
	At      time.Time
	Key     string
	Type    string
	Code    int32
	Elapsed time.Duration
}

// DefaultBufferSize is the event queue depth before drops begin.
const DefaultBufferSize = 1024

// Open creates or opens a journal at path. Use ":memory:" for an
// ephemeral journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tag_events (
			id TEXT PRIMARY KEY,
			at TEXT NOT NULL,
			key TEXT NOT NULL,
			type TEXT NOT NULL,
			code INTEGER NOT NULL,
			elapsed_us INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tag_events_key
		ON tag_events(key)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	j := &Journal{
		db:    db,
		queue: make(chan message, DefaultBufferSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go j.writer()
	return j, nil
}

// OnTagEvent implements tag.Observer. Never blocks; events that find
// the buffer full or the journal closed are dropped and counted.
func (j *Journal) OnTagEvent(evt tag.Event) {
	select {
	case <-j.stop:
	default:
		select {
		case j.queue <- message{evt: evt}:
			return
		default:
		}
	}
	j.mu.Lock()
	j.dropped++
	j.mu.Unlock()
}

// Dropped reports how many events were discarded because the buffer
// was full.
func (j *Journal) Dropped() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dropped
}

// Flush blocks until every event queued before the call is persisted.
func (j *Journal) Flush() {
	flushed := make(chan struct{})
	select {
	case j.queue <- message{flush: flushed}:
		select {
		case <-flushed:
		case <-j.done:
		}
	case <-j.done:
	}
}

// Close drains the queue, persists what remains, and closes the
// database. Events arriving after Close are dropped.
func (j *Journal) Close() error {
	var err error
	j.closed.Do(func() {
		close(j.stop)
		<-j.done
		err = j.db.Close()
	})
	return err
}

func (j *Journal) writer() {
	defer close(j.done)
	for {
		select {
		case msg := <-j.queue:
			j.handle(msg)
		case <-j.stop:
			for {
				select {
				case msg := <-j.queue:
					j.handle(msg)
				default:
					return
				}
			}
		}
	}
}

func (j *Journal) handle(msg message) {
	if msg.flush != nil {
		close(msg.flush)
		return
	}
	j.insert(msg.evt)
}

func (j *Journal) insert(evt tag.Event) {
	_, err := j.db.Exec(`
		INSERT INTO tag_events (id, at, key, type, code, elapsed_us)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		uuid.NewString(),
		evt.At.UTC().Format(time.RFC3339Nano),
		evt.Key,
		evt.Type.String(),
		evt.Code,
		evt.Elapsed.Microseconds(),
	)
	if err != nil {
		Logger().Warn("journal insert failed",
			zap.String("key", evt.Key),
			zap.Error(err))
	}
}

// Recent returns the newest events across all keys, newest first.
// Ordered by insertion, which follows event time per writer.
func (j *Journal) Recent(limit int) ([]Record, error) {
	return j.query(`
		SELECT id, at, key, type, code, elapsed_us
		FROM tag_events
		ORDER BY rowid DESC
		LIMIT ?
	`, limit)
}

// ByKey returns the newest events for one key, newest first.
func (j *Journal) ByKey(key string, limit int) ([]Record, error) {
	return j.query(`
		SELECT id, at, key, type, code, elapsed_us
		FROM tag_events
		WHERE key = ?
		ORDER BY rowid DESC
		LIMIT ?
	`, key, limit)
}

func (j *Journal) query(q string, args ...any) ([]Record, error) {
	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var at string
		var elapsedUS int64
		if err := rows.Scan(&r.ID, &at, &r.Key, &r.Type, &r.Code, &elapsedUS); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		r.At, _ = time.Parse(time.RFC3339Nano, at)
		r.Elapsed = time.Duration(elapsedUS) * time.Microsecond
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal rows: %w", err)
	}
	return records, nil
}
