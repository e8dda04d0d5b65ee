package qr

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

const (
	shortCodeChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	shortCodeLength = 8
	maxMintAttempts = 10
)

// CodeReserver claims a short code atomically. Implementations report
// ErrCodeTaken when the code already exists, so minting retries only on an
// actual uniqueness violation instead of doing a separate existence
// pre-check.
type CodeReserver interface {
	ReserveShortCode(ctx context.Context, code string) error
}

// Allocator mints unique 8-character short codes for dynamic QR codes.
type Allocator struct {
	reserver CodeReserver

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAllocator(reserver CodeReserver) *Allocator {
	return &Allocator{
		reserver: reserver,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate draws random codes until one is successfully reserved. After
// maxMintAttempts collisions it gives up with ErrAllocationExhausted, which
// callers should surface as retryable.
func (a *Allocator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < maxMintAttempts; i++ {
		code := a.randomCode(shortCodeLength)

		err := a.reserver.ReserveShortCode(ctx, code)
		if err == nil {
			return code, nil
		}
		if errors.Is(err, ErrCodeTaken) {
			continue
		}
		return "", err
	}
	return "", ErrAllocationExhausted
}

func (a *Allocator) randomCode(length int) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	b := make([]byte, length)
	for i := range b {
		b[i] = shortCodeChars[a.rnd.Intn(len(shortCodeChars))]
	}
	return string(b)
}
