package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"MatchSync/internal/interfaces"
	"MatchSync/internal/model"
)

// MemoryMatchStore keeps matches in process memory. Batches stage their writes and apply them
// under the store lock on Commit, so a failed or abandoned batch leaves no trace. Batches on one
// sport run one at a time: a batch holds its sport from Begin until Commit or Rollback.
type MemoryMatchStore struct {
	mu        sync.RWMutex
	nextID    uint64
	tables    map[model.Sport]map[uint64]model.MatchRecord
	keyFields map[model.Sport][]string
	now       func() time.Time

	batchMu sync.Mutex
	batches map[model.Sport]chan struct{}
}

// NewMemoryMatchStore enforces uniqueness over keyFields per sport; sports without an entry use
// model.DefaultKeyFields.
func NewMemoryMatchStore(keyFields map[model.Sport][]string) *MemoryMatchStore {
	return &MemoryMatchStore{
		tables:    make(map[model.Sport]map[uint64]model.MatchRecord),
		keyFields: keyFields,
		now:       func() time.Time { return time.Now().UTC() },
		batches:   make(map[model.Sport]chan struct{}),
	}
}

// batchSlot returns the single-slot semaphore serializing sport's batches.
func (s *MemoryMatchStore) batchSlot(sport model.Sport) chan struct{} {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	slot, ok := s.batches[sport]
	if !ok {
		slot = make(chan struct{}, 1)
		s.batches[sport] = slot
	}
	return slot
}

func (s *MemoryMatchStore) fieldsFor(sport model.Sport) []string {
	if f, ok := s.keyFields[sport]; ok {
		return f
	}
	return model.DefaultKeyFields
}

// Begin waits for the sport's running batch to finish, then starts a staged batch. ctx bounds
// both the wait and the batch: Commit fails once ctx is done. The caller must end the batch
// with Commit or Rollback.
func (s *MemoryMatchStore) Begin(ctx context.Context, sport model.Sport) (interfaces.MatchTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	slot := s.batchSlot(sport)
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("begin %s: %w", sport, ctx.Err())
	}
	return &memoryMatchTx{
		store:   s,
		slot:    slot,
		ctx:     ctx,
		sport:   sport,
		fields:  s.fieldsFor(sport),
		inserts: make(map[uint64]model.MatchRecord),
		updates: make(map[uint64]model.MatchRecord),
	}, nil
}

// List filters with case-insensitive substring matching, newest first.
func (s *MemoryMatchStore) List(ctx context.Context, sport model.Sport, filter model.MatchFilter) ([]model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	participant := strings.ToLower(filter.Participant)
	competition := strings.ToLower(filter.Competition)

	out := make([]model.MatchRecord, 0)
	for _, rec := range s.tables[sport] {
		if participant != "" &&
			!strings.Contains(strings.ToLower(rec.ParticipantA), participant) &&
			!strings.Contains(strings.ToLower(rec.ParticipantB), participant) {
			continue
		}
		if competition != "" && !strings.Contains(strings.ToLower(rec.Competition), competition) {
			continue
		}
		out = append(out, copyRecord(rec))
	}

	slices.SortFunc(out, func(a, b model.MatchRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	if limit := filter.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryMatchStore) Get(ctx context.Context, sport model.Sport, id uint64) (model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tables[sport][id]
	if !ok {
		return model.MatchRecord{}, fmt.Errorf("%s match %d: %w", sport, id, interfaces.ErrNotFound)
	}
	return copyRecord(rec), nil
}

// Count returns the number of committed rows for sport.
func (s *MemoryMatchStore) Count(sport model.Sport) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[sport])
}

// findCommitted scans committed rows. Caller holds at least the read lock.
func (s *MemoryMatchStore) findCommitted(sport model.Sport, key model.NaturalKey) (model.MatchRecord, bool) {
	want := key.String()
	for _, rec := range s.tables[sport] {
		if rec.Key(key.Fields).String() == want {
			return rec, true
		}
	}
	return model.MatchRecord{}, false
}

func (s *MemoryMatchStore) allocateID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID
}

type memoryMatchTx struct {
	store   *MemoryMatchStore
	slot    chan struct{}
	ctx     context.Context
	sport   model.Sport
	fields  []string
	inserts map[uint64]model.MatchRecord
	order   []uint64
	updates map[uint64]model.MatchRecord
	done    bool
}

// finish marks the batch done and hands the sport to the next batch.
func (t *memoryMatchTx) finish() {
	if t.done {
		return
	}
	t.done = true
	<-t.slot
}

var errTxDone = errors.New("transaction already finished")

func (t *memoryMatchTx) FindByKey(ctx context.Context, key model.NaturalKey) (model.MatchRecord, error) {
	if t.done {
		return model.MatchRecord{}, errTxDone
	}
	want := key.String()
	for _, id := range t.order {
		if rec := t.inserts[id]; rec.Key(key.Fields).String() == want {
			return copyRecord(rec), nil
		}
	}

	t.store.mu.RLock()
	rec, ok := t.store.findCommitted(t.sport, key)
	t.store.mu.RUnlock()
	if !ok {
		return model.MatchRecord{}, interfaces.ErrNotFound
	}
	if staged, ok := t.updates[rec.ID]; ok {
		return copyRecord(staged), nil
	}
	return copyRecord(rec), nil
}

func (t *memoryMatchTx) Insert(ctx context.Context, record model.MatchRecord) (model.MatchRecord, error) {
	if t.done {
		return model.MatchRecord{}, errTxDone
	}
	key := record.Key(t.fields)
	if _, err := t.FindByKey(ctx, key); err == nil {
		return model.MatchRecord{}, fmt.Errorf("%w: %s", interfaces.ErrDuplicateKey, key)
	}

	rec := copyRecord(record)
	rec.ID = t.store.allocateID()
	rec.Sport = t.sport
	rec.CreatedAt = t.store.now()
	rec.UpdatedAt = rec.CreatedAt
	t.inserts[rec.ID] = rec
	t.order = append(t.order, rec.ID)
	return copyRecord(rec), nil
}

func (t *memoryMatchTx) Update(ctx context.Context, record model.MatchRecord) error {
	if t.done {
		return errTxDone
	}
	if pending, ok := t.inserts[record.ID]; ok {
		t.inserts[record.ID] = pending.WithMutable(record)
		return nil
	}

	base, ok := t.updates[record.ID]
	if !ok {
		t.store.mu.RLock()
		base, ok = t.store.tables[t.sport][record.ID]
		t.store.mu.RUnlock()
		if !ok {
			return fmt.Errorf("update %s id %d: %w", t.sport, record.ID, interfaces.ErrNotFound)
		}
	}
	merged := base.WithMutable(record)
	merged.UpdatedAt = t.store.now()
	t.updates[record.ID] = merged
	return nil
}

// Commit applies every staged write or none. Key uniqueness is re-checked as a backstop.
func (t *memoryMatchTx) Commit() error {
	if t.done {
		return errTxDone
	}
	defer t.finish()
	// 1. the batch deadline
	if err := t.ctx.Err(); err != nil {
		return fmt.Errorf("commit %s: %w", t.sport, err)
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// 2. validate every staged write before applying any
	for _, id := range t.order {
		rec := t.inserts[id]
		if _, ok := s.findCommitted(t.sport, rec.Key(t.fields)); ok {
			return fmt.Errorf("commit %s: %w: %s", t.sport, interfaces.ErrDuplicateKey, rec.Key(t.fields))
		}
	}
	for id := range t.updates {
		if _, ok := s.tables[t.sport][id]; !ok {
			return fmt.Errorf("commit %s id %d: %w", t.sport, id, interfaces.ErrNotFound)
		}
	}

	// 3. apply
	table, ok := s.tables[t.sport]
	if !ok {
		table = make(map[uint64]model.MatchRecord)
		s.tables[t.sport] = table
	}
	for _, id := range t.order {
		table[id] = t.inserts[id]
	}
	for id, rec := range t.updates {
		table[id] = rec
	}
	return nil
}

func (t *memoryMatchTx) Rollback() error {
	t.finish()
	t.inserts = nil
	t.updates = nil
	t.order = nil
	return nil
}

func copyRecord(rec model.MatchRecord) model.MatchRecord {
	if rec.DetailURL != nil {
		u := *rec.DetailURL
		rec.DetailURL = &u
	}
	return rec
}
