package worker

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/streamfold/fanout-bench/internal/msg_tracker"
)

// MsgIdGenerator hands out random UUID message IDs for one producer
type MsgIdGenerator struct {
	generatorId string
	issued      atomic.Uint64
}

func NewMsgIdGenerator() *MsgIdGenerator {
	return &MsgIdGenerator{
		generatorId: uuid.New().String(),
	}
}

func (g *MsgIdGenerator) GeneratorID() string {
	return g.generatorId
}

// Next returns a fresh ID and its 1-based sequence number within the generator
func (g *MsgIdGenerator) Next() (msg_tracker.MessageID, uint64) {
	id := msg_tracker.MessageID(uuid.New().String())
	return id, g.issued.Add(1)
}

func (g *MsgIdGenerator) Issued() uint64 {
	return g.issued.Load()
}
