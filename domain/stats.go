package domain

// HubStats is a point-in-time view of the broadcast hub counters.
type HubStats struct {
	Subscribers int
	Accepted    uint64
	Delivered   uint64
	Dropped     uint64
}
