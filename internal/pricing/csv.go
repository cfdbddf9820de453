package pricing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/pebble/vfs"
)

var csvHeader = []string{"Crop", "Price", "Unit", "Trend", "Last_Updated"}

// lockRetry is how often a writer retries a lock file held elsewhere
const lockRetry = 10 * time.Millisecond

// CSVBook keeps prices in a CSV file. Writers are serialized by a mutex in
// process and an advisory lock on <path>.lock across processes, and replace
// the file atomically through a temp file and rename.
type CSVBook struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
	fs   vfs.FS
}

func NewCSVBook(path string) (*CSVBook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &CSVBook{path: path, now: time.Now, fs: vfs.Default}, nil
}

func (b *CSVBook) Get(_ context.Context, crop string) (PriceInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rows, err := b.read()
	if err != nil {
		return PriceInfo{}, err
	}
	key := normalize(crop)
	for _, r := range rows {
		if normalize(r.Crop) == key {
			return r, nil
		}
	}
	return PriceInfo{}, ErrNotFound
}

func (b *CSVBook) Set(ctx context.Context, crop string, price float64, trend Trend) (PriceInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	lock, err := b.lockFile(ctx)
	if err != nil {
		return PriceInfo{}, err
	}
	defer lock.Close()

	rows, err := b.read()
	if err != nil {
		return PriceInfo{}, err
	}

	info := newInfo(crop, price, trend, b.now())
	replaced := false
	for i := range rows {
		if normalize(rows[i].Crop) == info.Crop {
			rows[i] = info
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, info)
	}

	if err := b.write(rows); err != nil {
		return PriceInfo{}, err
	}
	return info, nil
}

func (b *CSVBook) List(_ context.Context) ([]PriceInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rows, err := b.read()
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Crop < rows[j].Crop })
	return rows, nil
}

func (b *CSVBook) Close() error { return nil }

// lockFile takes the writer lock shared with other processes. The lock never
// blocks, so it is retried until ctx ends.
func (b *CSVBook) lockFile(ctx context.Context) (io.Closer, error) {
	name := b.path + ".lock"
	for {
		lock, err := b.fs.Lock(name)
		if err == nil {
			return lock, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w (last attempt: %v)", name, ctx.Err(), err)
		case <-time.After(lockRetry):
		}
	}
}

func (b *CSVBook) read() ([]PriceInfo, error) {
	f, err := os.Open(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows []PriceInfo
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", b.path, err)
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == csvHeader[0] {
				continue
			}
		}
		if len(rec) < 2 {
			continue
		}
		price, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("price for %q: %w", rec[0], err)
		}
		info := PriceInfo{Crop: rec[0], PricePerQuintal: price, Unit: UnitQuintal, Trend: TrendStable}
		if len(rec) > 2 && rec[2] != "" {
			info.Unit = rec[2]
		}
		if len(rec) > 3 && rec[3] != "" {
			info.Trend = Trend(rec[3])
		}
		if len(rec) > 4 {
			info.LastUpdated = rec[4]
		}
		rows = append(rows, info)
	}
	return rows, nil
}

func (b *CSVBook) write(rows []PriceInfo) error {
	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".prices-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Crop,
			strconv.FormatFloat(r.PricePerQuintal, 'f', -1, 64),
			r.Unit,
			string(r.Trend),
			r.LastUpdated,
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path)
}
