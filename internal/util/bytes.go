package util

import (
	"fmt"
	"math/rand/v2"
)

// ByteGen produces OTel trace and span IDs from a fixed seed, so the same
// sequence of calls always yields the same IDs.
type ByteGen struct {
	g *rand.ChaCha8
}

func NewByteGen() *ByteGen {
	seed := [32]byte{
		0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
		0xfe, 0xdc, 0xba, 0x98, 0x76, 0x54, 0x32, 0x10,
		0x0f, 0x1e, 0x2d, 0x3c, 0x4b, 0x5a, 0x69, 0x78,
		0x87, 0x96, 0xa5, 0xb4, 0xc3, 0xd2, 0xe1, 0xf0,
	}

	return &ByteGen{
		g: rand.NewChaCha8(seed),
	}
}

// OtelId returns numBytes random bytes that are never all zero, as required
// for trace and span IDs.
func (b *ByteGen) OtelId(numBytes uint) []byte {
	byteSlice := make([]byte, numBytes)

	_, err := b.g.Read(byteSlice)
	if err != nil {
		panic(fmt.Errorf("failed to generate random bytes: %w", err))
	}

	for _, v := range byteSlice {
		if v != 0 {
			return byteSlice
		}
	}

	if numBytes > 0 {
		byteSlice[0] = 1
	}
	return byteSlice
}
