package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cockroachdb/pebble"
)

const pricePrefix = "price/"

// PebbleBook keeps prices in a Pebble key-value store, one key per crop
type PebbleBook struct {
	db  *pebble.DB
	now func() time.Time
}

func OpenPebbleBook(dir string) (*PebbleBook, error) {
	return OpenPebbleBookWithOptions(dir, &pebble.Options{})
}

func OpenPebbleBookWithOptions(dir string, opts *pebble.Options) (*PebbleBook, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, err
	}
	return &PebbleBook{db: db, now: time.Now}, nil
}

func (b *PebbleBook) Get(_ context.Context, crop string) (PriceInfo, error) {
	val, closer, err := b.db.Get(keyFor(crop))
	if errors.Is(err, pebble.ErrNotFound) {
		return PriceInfo{}, ErrNotFound
	}
	if err != nil {
		return PriceInfo{}, err
	}
	defer closer.Close()

	var info PriceInfo
	if err := json.Unmarshal(val, &info); err != nil {
		return PriceInfo{}, err
	}
	return info, nil
}

func (b *PebbleBook) Set(_ context.Context, crop string, price float64, trend Trend) (PriceInfo, error) {
	info := newInfo(crop, price, trend, b.now())
	val, err := json.Marshal(info)
	if err != nil {
		return PriceInfo{}, err
	}
	if err := b.db.Set(keyFor(crop), val, pebble.Sync); err != nil {
		return PriceInfo{}, err
	}
	return info, nil
}

// List scans the price/ prefix; keys sort by crop name
func (b *PebbleBook) List(_ context.Context) ([]PriceInfo, error) {
	iter, err := b.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(pricePrefix),
		UpperBound: []byte("price0"), // '0' follows '/'
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []PriceInfo
	for iter.First(); iter.Valid(); iter.Next() {
		var info PriceInfo
		if err := json.Unmarshal(iter.Value(), &info); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, iter.Error()
}

func (b *PebbleBook) Close() error {
	return b.db.Close()
}

func keyFor(crop string) []byte {
	return []byte(pricePrefix + normalize(crop))
}
