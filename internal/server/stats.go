package server

import "time"

// counters are updated atomically by connection goroutines.
type counters struct {
	active int64
	total  uint64
	puts   uint64
	gets   uint64
	fails  uint64
}

type Stats struct {
	ActiveConns int64         `json:"active_conns"`
	TotalConns  uint64        `json:"total_conns"`
	Puts        uint64        `json:"puts"`
	Gets        uint64        `json:"gets"`
	Fails       uint64        `json:"fails"`
	Started     time.Time     `json:"started"`
	Uptime      time.Duration `json:"uptime_ns"`
}
