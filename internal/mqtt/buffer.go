package mqtt

import (
	"log"
	"sync"
)

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// offlineQueue is a fixed-capacity FIFO holding messages published while
// the broker is unreachable. When full, the oldest message is dropped.
// Safe for concurrent use: publishes and the paho reconnect handler run on
// different goroutines.
type offlineQueue struct {
	mu       sync.Mutex
	buf      []bufferedMsg
	head     int // next write position
	count    int
	dropped  int  // messages lost to overflow since the last drain
	overflow bool // true once the drop has been logged
}

func newOfflineQueue(capacity int) *offlineQueue {
	return &offlineQueue{buf: make([]bufferedMsg, capacity)}
}

func (q *offlineQueue) push(msg bufferedMsg) {
	q.mu.Lock()
	defer q.mu.Unlock()

	capacity := len(q.buf)
	if q.count == capacity {
		if !q.overflow {
			log.Printf("mqtt: offline queue full (%d messages), dropping oldest", capacity)
			q.overflow = true
		}
		q.dropped++
		// head already points at the oldest
		q.buf[q.head] = msg
		q.head = (q.head + 1) % capacity
		return
	}
	q.buf[q.head] = msg
	q.head = (q.head + 1) % capacity
	q.count++
}

// drain removes and returns every queued message, oldest first, and the
// number dropped since the previous drain.
func (q *offlineQueue) drain() ([]bufferedMsg, int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := q.dropped
	q.dropped = 0
	q.overflow = false
	if q.count == 0 {
		return nil, dropped
	}

	capacity := len(q.buf)
	result := make([]bufferedMsg, q.count)
	start := (q.head - q.count + capacity) % capacity
	for i := 0; i < q.count; i++ {
		result[i] = q.buf[(start+i)%capacity]
		q.buf[(start+i)%capacity] = bufferedMsg{}
	}

	q.count = 0
	q.head = 0
	return result, dropped
}

func (q *offlineQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}
