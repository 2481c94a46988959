package traceingest

import (
	"context"
	"fmt"
	"os"
	"time"
)

type writeCmd struct {
	spans []TraceSpan
	reply chan error
}

type optimizeCmd struct {
	reply chan error
}

type shutdownCmd struct {
	done chan struct{}
}

// Store owns the single actor goroutine serializing all writes and
// compactions against one trace directory. A single goroutine reading
// one command channel sidesteps the need for locking across the
// manifest read-modify-swap sequence: commands are processed strictly
// in the order they're sent.
type Store struct {
	dir  string
	man  *manifest
	cmds chan any
	now  func() time.Time
}

// Open creates (if needed) the trace directory and starts its actor
// goroutine. Call Close to stop it.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating trace dir: %w", err)
	}
	s := &Store{
		dir:  dir,
		man:  newManifest(dir),
		cmds: make(chan any, 100),
		now:  time.Now,
	}
	go s.run(ctx)
	return s, nil
}

// Write validates and appends spans as one new segment, visible to
// readers only once its manifest entry is durably appended. Spans are
// flattened and persisted in their given order; span_order is assumed
// already assigned by the caller.
func (s *Store) Write(ctx context.Context, spans []TraceSpan) error {
	reply := make(chan error, 1)
	select {
	case s.cmds <- writeCmd{spans: spans, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Optimize triggers Z-order-approximate compaction of every live
// segment. Safe to call concurrently with Write; both go through the
// same serialized command channel.
func (s *Store) Optimize(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case s.cmds <- optimizeCmd{reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the actor goroutine, waiting for any in-flight command to
// finish first.
func (s *Store) Close() {
	done := make(chan struct{})
	s.cmds <- shutdownCmd{done: done}
	<-done
}

func (s *Store) run(ctx context.Context) {
	for {
		select {
		case cmd := <-s.cmds:
			switch c := cmd.(type) {
			case writeCmd:
				c.reply <- s.handleWrite(c.spans)
			case optimizeCmd:
				c.reply <- s.handleOptimize()
			case shutdownCmd:
				close(c.done)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Store) handleWrite(spans []TraceSpan) error {
	if len(spans) == 0 {
		return nil
	}
	rows := make([]spanRow, 0, len(spans))
	for i, span := range spans {
		if err := span.Validate(); err != nil {
			return fmt.Errorf("span %d: %w", i, err)
		}
		span = redactSpan(span)
		row, err := toSpanRow(span)
		if err != nil {
			return fmt.Errorf("span %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	entry, err := writeSegment(s.dir, rows, s.now())
	if err != nil {
		return fmt.Errorf("writing segment: %w", err)
	}
	if err := s.man.append(entry); err != nil {
		removeSegment(entry.Path)
		return fmt.Errorf("appending manifest entry: %w", err)
	}
	return nil
}

func (s *Store) handleOptimize() error {
	return compact(s.dir, s.man, s.now())
}

// Segments returns the manifest entries currently live.
// pkg/tracequery's batch loader reads rows through LoadAll instead.
func (s *Store) Segments() ([]segmentEntry, error) {
	return s.man.read()
}

// Dir returns the store's backing directory.
func (s *Store) Dir() string {
	return s.dir
}
