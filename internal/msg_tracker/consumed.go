package msg_tracker

import (
	"sync"
	"sync/atomic"
)

type ClaimResult struct {
	Claimed bool
	Dup     bool

	// Owner is the consumer holding the claim, the caller when Claimed is set
	Owner int
}

type claim struct {
	owner      int
	duplicates uint
}

// ConsumedSet remembers which consumer claimed each message first
type ConsumedSet struct {
	mu     sync.Mutex
	claims map[MessageID]*claim

	totalClaimed atomic.Uint64
	totalDuped   atomic.Uint64
}

func NewConsumedSet() *ConsumedSet {
	return &ConsumedSet{
		claims: make(map[MessageID]*claim),
	}
}

// Claim checks and inserts id in one critical section, so exactly one caller
// per ID gets Claimed.
func (cs *ConsumedSet) Claim(id MessageID, consumerID int) ClaimResult {
	var result ClaimResult

	cs.mu.Lock()
	c, exists := cs.claims[id]
	if exists {
		c.duplicates++
		result.Dup = true
		result.Owner = c.owner
	} else {
		cs.claims[id] = &claim{owner: consumerID}
		result.Claimed = true
		result.Owner = consumerID
	}
	cs.mu.Unlock()

	if result.Claimed {
		cs.totalClaimed.Add(1)
	} else {
		cs.totalDuped.Add(1)
	}

	return result
}

// IsClaimed checks if a message has been claimed
func (cs *ConsumedSet) IsClaimed(id MessageID) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	_, exists := cs.claims[id]
	return exists
}

// Owner returns the consumer that claimed id
func (cs *ConsumedSet) Owner(id MessageID) (int, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	c, exists := cs.claims[id]
	if !exists {
		return 0, false
	}
	return c.owner, true
}

// Duplicates returns how many times id was observed after being claimed
func (cs *ConsumedSet) Duplicates(id MessageID) uint {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	c, exists := cs.claims[id]
	if !exists {
		return 0
	}
	return c.duplicates
}

func (cs *ConsumedSet) Len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	return len(cs.claims)
}

func (cs *ConsumedSet) TotalClaimed() uint64 {
	return cs.totalClaimed.Load()
}

func (cs *ConsumedSet) TotalDuped() uint64 {
	return cs.totalDuped.Load()
}

// ClaimsByConsumer returns the number of claims held by each consumer
func (cs *ConsumedSet) ClaimsByConsumer() map[int]uint {
	result := make(map[int]uint)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, c := range cs.claims {
		result[c.owner]++
	}

	return result
}
