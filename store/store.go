// Package store persists index tables of contents into a Lode dataset.
//
// Every scan writes one snapshot holding an entry record per logical record,
// a log_pass record per frame-set descriptor and one scan record with the
// scan's outcome and counters. Records are JSONL, Hive-partitioned by
// file and record_kind.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/strata/index"
	"github.com/justapithecus/strata/metrics"
	"github.com/justapithecus/strata/types"
)

// DefaultDataset is the dataset ID used when none is configured.
const DefaultDataset = "strata"

// partitionKeys is the Hive layout of the dataset.
var partitionKeys = []string{"file", "record_kind"}

// Store writes scans to a Lode dataset. It is safe for concurrent use:
// writes are serialized, since a Lode dataset allows one writer at a time.
type Store struct {
	dataset   lode.Dataset
	collector *metrics.Collector

	// mu is shared by every copy made with WithMetrics.
	mu *sync.Mutex
}

// NewDataset creates the Lode dataset strata reads and writes. Both paths
// use the same codec and layout.
func NewDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	if dataset == "" {
		dataset = DefaultDataset
	}
	ds, err := lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, wrap(err, "init", dataset)
	}
	return ds, nil
}

// New creates a Store over a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func New(dataset string, factory lode.StoreFactory) (*Store, error) {
	ds, err := NewDataset(dataset, factory)
	if err != nil {
		return nil, err
	}
	return &Store{dataset: ds, mu: &sync.Mutex{}}, nil
}

// NewFS creates a Store with filesystem storage rooted at root.
func NewFS(dataset, root string) (*Store, error) {
	return New(dataset, lode.NewFSFactory(root))
}

// WithMetrics returns a Store over the same dataset that records write
// outcomes on c. Concurrent scans each take their own copy.
func (s *Store) WithMetrics(c *metrics.Collector) *Store {
	cp := *s
	cp.collector = c
	return &cp
}

// Dataset returns the underlying dataset.
func (s *Store) Dataset() lode.Dataset { return s.dataset }

// WriteScan writes the table of contents of idx together with the scan
// record in a single snapshot. idx may be nil for a scan that failed.
func (s *Store) WriteScan(ctx context.Context, meta types.ScanMeta, idx *index.Index, outcome types.Outcome, snap metrics.Snapshot) error {
	var records []any
	if idx != nil {
		records = make([]any, 0, idx.Len()+1)
		for seq, e := range idx.Entries() {
			records = append(records, toEntryRecordMap(seq, e, meta))
		}
	}
	records = append(records, toScanRecordMap(meta, idx, outcome, snap, time.Now()))

	s.mu.Lock()
	_, err := s.dataset.Write(ctx, records, lode.Metadata{})
	s.mu.Unlock()
	if err != nil {
		s.collector.IncLodeWriteFailure()
		return wrap(err, "write", string(s.dataset.ID())+"/"+FileKey(meta.File))
	}
	s.collector.IncLodeWriteSuccess()
	return nil
}

// Close releases resources. Datasets need no explicit close.
func (s *Store) Close() error {
	return nil
}
