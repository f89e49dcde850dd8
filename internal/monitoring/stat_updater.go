package monitoring

import (
	"time"

	"github.com/lmarban/tasklane-be/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats is the payload broadcast to connected clients.
type SystemStats struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemPercent float64 `json:"mem_percent"`
	MemUsedMB  uint64  `json:"mem_used_mb"`
	SampledAt  string  `json:"sampled_at"`
}

// StatUpdater periodically samples host CPU/memory usage and broadcasts the
// sample to all connected websocket clients.
type StatUpdater struct {
	hub      *websocket.Hub
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(hub *websocket.Hub, interval time.Duration) *StatUpdater {
	return &StatUpdater{
		hub:      hub,
		interval: interval,
		// Buffered so Stop never blocks, whatever state Run is in.
		done: make(chan bool, 1),
	}
}

// Run starts the periodic sampling.
func (su *StatUpdater) Run() {
	log.Info().Msg("Starting background stat updater...")
	su.ticker = time.NewTicker(su.interval)
	defer su.ticker.Stop()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-su.ticker.C:
			su.sample()
		}
	}
}

// Stop halts the periodic sampling.
func (su *StatUpdater) Stop() {
	su.done <- true
}

func (su *StatUpdater) sample() {
	stats := SystemStats{SampledAt: time.Now().UTC().Format(time.RFC3339)}

	if percents, err := cpu.Percent(0, false); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Failed to sample CPU usage")
	} else if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Failed to sample memory usage")
	} else {
		stats.MemPercent = vm.UsedPercent
		stats.MemUsedMB = vm.Used / 1024 / 1024
	}

	su.hub.Broadcast <- websocket.Message{Action: "system.stats", Payload: stats}.Encode()
}
