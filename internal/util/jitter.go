package util

import (
	"math/rand/v2"
	"time"
)

// DelayRange is a half-open interval [Min, Max) of durations
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

func (d DelayRange) Valid() bool {
	return d.Min >= 0 && d.Max >= d.Min
}

// Jitter draws delays from a DelayRange. It is not safe for concurrent use,
// every producer and consumer owns one.
type Jitter struct {
	r *rand.Rand
}

// NewJitter seeds a generator for one stream. A zero seed picks a random one,
// otherwise the same (seed, stream) pair always yields the same delays.
func NewJitter(seed uint64, stream uint64) *Jitter {
	if seed == 0 {
		seed = rand.Uint64()
	}

	return &Jitter{
		r: rand.New(rand.NewPCG(seed, stream)),
	}
}

func (j *Jitter) Next(d DelayRange) time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}

	return d.Min + time.Duration(j.r.Int64N(int64(d.Max-d.Min)))
}
