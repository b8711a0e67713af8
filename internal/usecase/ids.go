package usecase

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator yields merchant transaction ids.
type IDGenerator interface {
	NewMerchantTransactionID() string
}

// ULIDGenerator produces "MT" + ULID ids: 28 chars, alphanumeric, sortable
// by creation time and well inside the provider's 35 char limit.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ULIDGenerator) NewMerchantTransactionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return "MT" + ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}
