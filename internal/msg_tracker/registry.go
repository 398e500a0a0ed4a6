package msg_tracker

import (
	"sync"
	"time"
)

// MessageID is the join key between producers, consumers and the registry
type MessageID string

// TimingRecord holds the emit and first-consumption times of a message. A zero
// End means no consumer has claimed the message yet.
type TimingRecord struct {
	ProducerID int
	ConsumerID int
	Start      time.Time
	End        time.Time
}

func (tr TimingRecord) Finalized() bool {
	return !tr.End.IsZero()
}

// Latency returns End - Start, or zero when the record is not finalized
func (tr TimingRecord) Latency() time.Duration {
	if !tr.Finalized() {
		return 0
	}

	d := tr.End.Sub(tr.Start)
	if d < 0 {
		return 0
	}
	return d
}

// Registry maps message IDs to their timing records. Every operation holds
// the lock for the single key it touches.
type Registry struct {
	mu      sync.Mutex
	now     func() time.Time
	records map[MessageID]*TimingRecord
}

func NewRegistry() *Registry {
	return &Registry{
		now:     time.Now,
		records: make(map[MessageID]*TimingRecord),
	}
}

// RecordStart creates the timing record of a freshly published message.
// Recording the same ID twice replaces the earlier record.
func (r *Registry) RecordStart(id MessageID, producerID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[id] = &TimingRecord{
		ProducerID: producerID,
		Start:      r.now(),
	}
}

// RecordEnd finalizes the record of id. It returns false when the ID is unknown
// or the record was already finalized, in which case nothing changes.
func (r *Registry) RecordEnd(id MessageID, consumerID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	tr, exists := r.records[id]
	if !exists || tr.Finalized() {
		return false
	}

	tr.End = r.now()
	tr.ConsumerID = consumerID
	return true
}

// Get returns a copy of the record for id
func (r *Registry) Get(id MessageID) (TimingRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tr, exists := r.records[id]
	if !exists {
		return TimingRecord{}, false
	}
	return *tr, true
}

// Snapshot returns a point-in-time copy of all records
func (r *Registry) Snapshot() map[MessageID]TimingRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := make(map[MessageID]TimingRecord, len(r.records))
	for id, tr := range r.records {
		snap[id] = *tr
	}
	return snap
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.records)
}

func (r *Registry) FinalizedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int
	for _, tr := range r.records {
		if tr.Finalized() {
			total++
		}
	}
	return total
}
