package ordernum

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"regexp"
	"time"
)

// Format is ORD-YYYYMMDD-NNNN. The numeric suffix is random, so two orders
// placed in the same instant rarely collide; the unique index on
// orders.order_number catches the rare case and the caller regenerates.
var pattern = regexp.MustCompile(`^ORD-\d{8}-\d{4}$`)

// Generator produces buyer-facing order numbers.
type Generator struct {
	now    func() time.Time
	suffix func() int
}

// New builds a generator using the system clock and a random suffix.
func New() *Generator {
	return &Generator{
		now:    time.Now,
		suffix: randomSuffix,
	}
}

// NewWithClock is the test seam for deterministic numbers.
func NewWithClock(now func() time.Time, suffix func() int) *Generator {
	g := New()
	if now != nil {
		g.now = now
	}
	if suffix != nil {
		g.suffix = suffix
	}
	return g
}

// Next returns a fresh order number for the current day.
func (g *Generator) Next() string {
	return fmt.Sprintf("ORD-%s-%04d", g.now().UTC().Format("20060102"), g.suffix()%10000)
}

// IsValid reports whether the value matches the order number format.
func IsValid(value string) bool {
	return pattern.MatchString(value)
}

func randomSuffix() int {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// rand.Read on supported platforms does not fail; fall back to the clock.
		return int(time.Now().UnixNano() % 10000)
	}
	return int(binary.BigEndian.Uint32(buf[:]) % 10000)
}
