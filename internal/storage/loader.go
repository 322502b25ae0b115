package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CopyFn inserts one batch of rows aligned to columns and returns how many
// were written. It must return promptly once ctx is done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// BatchStats summarizes a LoadBatches run.
type BatchStats struct {
	Rows    int64
	Batches int64
	Elapsed time.Duration
}

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn for each non-empty batch. It stops at the first copy error or
// when ctx is done, returning what was written so far.
func LoadBatches(
	ctx context.Context,
	table string,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (BatchStats, error) {
	var st BatchStats
	if batchSize <= 0 {
		return st, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return st, fmt.Errorf("copyFn must not be nil")
	}

	var (
		batch     = make([][]any, 0, batchSize)
		start     = time.Now()
		lastFlush = start
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		st.Rows += n
		batch = batch[:0]
		if err != nil {
			log.Printf("storage: copy failed table=%s after=%d total=%d err=%v", table, n, st.Rows, err)
			return err
		}

		st.Batches++
		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(n) / since.Seconds()
		}
		log.Printf("storage: batch #%d table=%s rps=%.0f inserted=%d total=%d elapsed=%s",
			st.Batches, table, rps, n, st.Rows, now.Sub(start).Truncate(time.Millisecond))
		lastFlush = now
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			st.Elapsed = time.Since(start)
			return st, ctx.Err()

		case row, ok := <-in:
			if !ok {
				err := flush()
				st.Elapsed = time.Since(start)
				return st, err
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					st.Elapsed = time.Since(start)
					return st, err
				}
			}
		}
	}
}
