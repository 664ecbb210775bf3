package store

import (
	"context"
	"sync"
	"time"

	"earshot/pkg/record"
)

// InMemory keeps records in a map. It favors clarity over performance and is
// the default backend for tests and local runs.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]record.UntypedRecord
	seq     uint32
	now     func() time.Time
}

// InMemoryOption configures an InMemory store.
type InMemoryOption func(*InMemory)

// WithClock sets the clock used for timestamp stamping.
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemory) {
		if now != nil {
			s.now = now
		}
	}
}

func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{
		records: make(map[string]record.UntypedRecord),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) Get(_ context.Context, guid string) (record.UntypedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[guid]; ok {
		return rec, nil
	}
	return record.UntypedRecord{}, ErrNotFound
}

func (s *InMemory) Put(_ context.Context, rec record.UntypedRecord) (record.UntypedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	meta := rec.Meta()
	meta.Seq = s.seq
	meta.Timestamp = uint32(s.now().Unix())
	rec.SetMeta(meta)
	s.records[rec.GUID()] = rec
	return rec, nil
}

func (s *InMemory) ByType(_ context.Context, typ string) ([]record.UntypedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []record.UntypedRecord
	for _, rec := range s.records {
		if rec.Type() == typ {
			out = append(out, rec)
		}
	}
	sortBySeq(out)
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, guid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[guid]; !ok {
		return ErrNotFound
	}
	delete(s.records, guid)
	return nil
}
