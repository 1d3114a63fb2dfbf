package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/RefTrackApp/RefTrack/internal/pkg/analytics"
)

const (
	// SnapshotInterval is how often the hub recomputes and pushes the
	// realtime dashboard snapshot.
	SnapshotInterval = 15 * time.Second

	// subscriberBuffer bounds how many frames a slow client may lag
	// behind before frames are dropped for it.
	subscriberBuffer = 4
)

// SnapshotEvent names the SSE event carrying a dashboard snapshot.
const SnapshotEvent = "snapshot"

// StatsSource produces the realtime dashboard snapshot for a shop.
type StatsSource interface {
	BuildStats(shopID uint, viewMode, timeRange string) (*analytics.Stats, error)
}

// Hub fans realtime visitor snapshots out to connected dashboard clients.
// Snapshots are computed per shop, only for shops that currently have at
// least one subscriber.
type Hub struct {
	source   StatsSource
	interval time.Duration

	mu          sync.Mutex
	subscribers map[uint]map[chan []byte]struct{}
	running     bool
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewHub creates a hub pushing snapshots from the given source.
func NewHub(source StatsSource) *Hub {
	return &Hub{
		source:      source,
		interval:    SnapshotInterval,
		subscribers: make(map[uint]map[chan []byte]struct{}),
	}
}

// Start launches the snapshot loop.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	h.stopCh = make(chan struct{})
	h.wg.Add(1)
	go h.loop(h.stopCh)
	log.Info("[Realtime] Snapshot hub started")
}

// Stop terminates the loop and closes every subscriber channel, which
// ends the attached streams.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.stopCh)
	for shopID, subs := range h.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(h.subscribers, shopID)
	}
	h.mu.Unlock()

	h.wg.Wait()
	log.Info("[Realtime] Snapshot hub stopped")
}

// Subscribe registers a dashboard client for a shop's snapshots. The
// returned cancel func detaches the client; it is safe to call more than
// once. The first snapshot is pushed immediately in the background.
func (h *Hub) Subscribe(shopID uint) (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	subs, ok := h.subscribers[shopID]
	if !ok {
		subs = make(map[chan []byte]struct{})
		h.subscribers[shopID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	go h.pushSnapshot(shopID)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.subscribers[shopID]; ok {
				if _, present := subs[ch]; present {
					delete(subs, ch)
					close(ch)
				}
				if len(subs) == 0 {
					delete(h.subscribers, shopID)
				}
			}
		})
	}
	return ch, cancel
}

// SubscriberCount reports how many clients are attached for a shop.
func (h *Hub) SubscriberCount(shopID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[shopID])
}

func (h *Hub) loop(stopCh chan struct{}) {
	defer h.wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			for _, shopID := range h.activeShops() {
				h.pushSnapshot(shopID)
			}
		}
	}
}

func (h *Hub) activeShops() []uint {
	h.mu.Lock()
	defer h.mu.Unlock()
	shops := make([]uint, 0, len(h.subscribers))
	for shopID := range h.subscribers {
		shops = append(shops, shopID)
	}
	return shops
}

// pushSnapshot computes the realtime snapshot for one shop and fans it
// out. Slow subscribers skip the frame rather than blocking the hub.
func (h *Hub) pushSnapshot(shopID uint) {
	stats, err := h.source.BuildStats(shopID, analytics.ViewModeRealtime, "")
	if err != nil {
		log.Errorf("[Realtime] Snapshot for shop %d failed: %v", shopID, err)
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		log.Errorf("[Realtime] Snapshot marshal failed: %v", err)
		return
	}
	frame := FormatEvent(SnapshotEvent, data)

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[shopID] {
		select {
		case ch <- frame:
		default:
		}
	}
}
