package runtime

import (
	"sync"

	"trollbox/domain"
)

// DefaultHistoryCapacity is how many messages a new subscriber gets replayed.
const DefaultHistoryCapacity = 100

// HistoryBuffer keeps the most recent messages, oldest first.
// It is the only state shared outside the hub loop, so critical sections
// never do more than move slice elements.
type HistoryBuffer struct {
	mu       sync.Mutex
	capacity int
	messages []domain.Message
}

func NewHistoryBuffer(capacity int) *HistoryBuffer {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &HistoryBuffer{
		capacity: capacity,
		messages: make([]domain.Message, 0, capacity),
	}
}

// Push appends m, evicting the oldest entry first when the buffer is full.
func (b *HistoryBuffer) Push(m domain.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.messages) >= b.capacity {
		copy(b.messages, b.messages[1:])
		b.messages = b.messages[:len(b.messages)-1]
	}
	b.messages = append(b.messages, m)
}

// Snapshot returns a copy of the buffer, oldest first.
func (b *HistoryBuffer) Snapshot() []domain.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := make([]domain.Message, len(b.messages))
	copy(res, b.messages)
	return res
}

func (b *HistoryBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

func (b *HistoryBuffer) Capacity() int {
	return b.capacity
}
