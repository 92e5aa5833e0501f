package store

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	pattern := regexp.MustCompile(`^ORD-20260314092653-\d{3}$`)
	for i := 0; i < 50; i++ {
		number := generateOrderNumber(at)
		assert.Regexp(t, pattern, number)
	}
}

func TestGenerateOrderNumberUsesUTC(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	local := time.Date(2026, 3, 14, 12, 0, 0, 0, nairobi)

	number := generateOrderNumber(local)
	assert.Regexp(t, `^ORD-20260314090000-\d{3}$`, number)
}
