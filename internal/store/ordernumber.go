package store

import (
	"fmt"
	"math/rand"
	"time"
)

// generateOrderNumber builds a textual identifier from the current time plus
// a three-digit random suffix. Two orders created within the same second can
// collide with roughly 1-in-1000 odds; the unique constraint on
// orders.order_number catches that at insert time and Checkout retries with
// a freshly generated number.
func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%03d", now.UTC().Format("20060102150405"), rand.Intn(1000))
}
