package inventory

import (
	"sort"
	"time"
)

// ActiveBatches filters a snapshot down to batches usable as of the given
// time (not expired, quantity above zero) and orders them by the FIFO key:
// expiry date, then received date, then batch id. The id tie-break gives a
// total order, which is what makes allocation plans deterministic.
//
// Expired and emptied batches stay in the store for audit; they are only
// excluded from this view.
func ActiveBatches(batches []*Batch, asOf time.Time) []*Batch {
	active := make([]*Batch, 0, len(batches))
	for _, b := range batches {
		if b.Quantity > 0 && !b.ExpiryDate.Before(asOf) {
			active = append(active, b)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if !a.ExpiryDate.Equal(b.ExpiryDate) {
			return a.ExpiryDate.Before(b.ExpiryDate)
		}
		if !a.ReceivedDate.Equal(b.ReceivedDate) {
			return a.ReceivedDate.Before(b.ReceivedDate)
		}
		return a.ID.String() < b.ID.String()
	})
	return active
}

// TotalOnHand sums active quantities in a snapshot.
func TotalOnHand(batches []*Batch, asOf time.Time) int {
	total := 0
	for _, b := range ActiveBatches(batches, asOf) {
		total += b.Quantity
	}
	return total
}
