package rts

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	eventBufferSize      = 1024
	maxEventsPerSec      = 5000
	maxEventsPerFaction  = 200
	batchFlushSize       = 64
	batchFlushInterval   = 100 * time.Millisecond
	factionLimiterCleanup = 5 * time.Minute
)

// EventKind classifies a game event for the replay/spectator log (§12
// supplemented observability, adapted from the reference stack's combat
// event taxonomy).
type EventKind uint8

const (
	EventUnknown EventKind = iota
	EventTick              // tick boundary with RNG seed, for replay determinism
	EventUnitDestroyed
	EventBuildingDestroyed
	EventProductionComplete
	EventResearchComplete
	EventFactionEliminated
)

func (k EventKind) String() string {
	switch k {
	case EventTick:
		return "tick"
	case EventUnitDestroyed:
		return "unit_destroyed"
	case EventBuildingDestroyed:
		return "building_destroyed"
	case EventProductionComplete:
		return "production_complete"
	case EventResearchComplete:
		return "research_complete"
	case EventFactionEliminated:
		return "faction_eliminated"
	default:
		return "unknown"
	}
}

// GameEvent is one entry in a game's event log.
type GameEvent struct {
	Type      EventKind `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Sequence  uint64    `json:"sequence"`
	Tick      uint64    `json:"tick"`
	FactionID EntityID  `json:"factionId"`
	Payload   []byte    `json:"payload,omitempty"`
}

// EventLog is a bounded, rate-limited, async-flushed event log: one per
// game, never shared, so a flood on one game cannot starve another's
// writer goroutine.
type EventLog struct {
	buffer    [eventBufferSize]GameEvent
	writeHead uint64
	readHead  uint64

	globalLimiter   *rate.Limiter
	factionLimiters sync.Map // map[EntityID]*factionLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64
	totalCount   uint64
}

type factionLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

func NewEventLog() *EventLog {
	return &EventLog{
		globalLimiter: rate.NewLimiter(maxEventsPerSec, maxEventsPerSec/10),
		stopChan:      make(chan struct{}),
		running:       atomic.Bool{},
	}
}

// Start begins the async writer and limiter-cleanup goroutines. A game
// with no filePath still rate-limits and buffers, it just never flushes
// to disk (useful for tests and ephemeral games).
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}
	el.filePath = filePath
	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = f
	}
	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()
	return nil
}

func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Load() {
			return
		}
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()
		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
		}
		el.fileMu.Unlock()
	})
}

// Emit records an event, subject to global and per-faction rate limits.
// Returns false if the event was dropped (DoS protection, not a caller
// error: the tick never blocks on the event log).
func (el *EventLog) Emit(e GameEvent) bool {
	if !el.running.Load() {
		return false
	}
	if !el.globalLimiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}
	if e.FactionID != 0 {
		if !el.factionLimiter(e.FactionID).Allow() {
			atomic.AddUint64(&el.droppedCount, 1)
			return false
		}
	}

	head := atomic.AddUint64(&el.writeHead, 1)
	tail := atomic.LoadUint64(&el.readHead)
	if head-tail >= eventBufferSize {
		atomic.AddUint64(&el.readHead, 1)
		atomic.AddUint64(&el.droppedCount, 1)
	}

	e.Sequence = head
	el.buffer[head%eventBufferSize] = e
	atomic.AddUint64(&el.totalCount, 1)
	return true
}

// EmitSimple builds and emits a GameEvent from its constituent parts.
func (el *EventLog) EmitSimple(kind EventKind, tick uint64, factionID EntityID, payload interface{}) bool {
	data, _ := json.Marshal(payload)
	return el.Emit(GameEvent{
		Type: kind, Timestamp: time.Now().UnixNano(),
		Tick: tick, FactionID: factionID, Payload: data,
	})
}

func (el *EventLog) factionLimiter(id EntityID) *rate.Limiter {
	if v, ok := el.factionLimiters.Load(id); ok {
		entry := v.(*factionLimiterEntry)
		entry.lastUsed = time.Now()
		return entry.limiter
	}
	entry := &factionLimiterEntry{
		limiter:  rate.NewLimiter(maxEventsPerFaction, maxEventsPerFaction/10),
		lastUsed: time.Now(),
	}
	actual, _ := el.factionLimiters.LoadOrStore(id, entry)
	return actual.(*factionLimiterEntry).limiter
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()
	ticker := time.NewTicker(batchFlushInterval)
	defer ticker.Stop()

	batch := make([]GameEvent, 0, batchFlushSize)
	for {
		select {
		case <-el.stopChan:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
			return
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()
	ticker := time.NewTicker(factionLimiterCleanup)
	defer ticker.Stop()
	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-factionLimiterCleanup)
			el.factionLimiters.Range(func(key, value interface{}) bool {
				if value.(*factionLimiterEntry).lastUsed.Before(cutoff) {
					el.factionLimiters.Delete(key)
				}
				return true
			})
		}
	}
}

func (el *EventLog) collectBatch(batch []GameEvent) []GameEvent {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)
	for i := tail; i < head && len(batch) < batchFlushSize; i++ {
		batch = append(batch, el.buffer[i%eventBufferSize])
	}
	if len(batch) > 0 {
		atomic.AddUint64(&el.readHead, uint64(len(batch)))
	}
	return batch
}

func (el *EventLog) flushBatch(batch []GameEvent) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()
	if el.file == nil {
		return
	}
	for _, e := range batch {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		el.file.Write(data)
		el.file.Write([]byte("\n"))
	}
}

// Stats reports counters useful for the admin/debug surface (§12).
func (el *EventLog) Stats() map[string]uint64 {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)
	return map[string]uint64{
		"total":   atomic.LoadUint64(&el.totalCount),
		"dropped": atomic.LoadUint64(&el.droppedCount),
		"pending": head - tail,
	}
}
