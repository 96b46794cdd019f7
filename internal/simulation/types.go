package simulation

import (
	"errors"
	"time"
)

// Mode names accepted by the toggle endpoints. Latency is another name for
// the disaster flag: both switch the injector to its degraded profile.
const (
	ModeDisaster = "disaster"
	ModeLatency  = "latency"
	ModeDDoS     = "ddos"
)

// ErrInvalidMode is returned for a mode name no flag answers to.
var ErrInvalidMode = errors.New("invalid simulation mode")

type flag int

const (
	flagDisaster flag = iota
	flagDDoS
	numFlags
)

func (f flag) String() string {
	if f == flagDDoS {
		return ModeDDoS
	}
	return ModeDisaster
}

// Snapshot is a consistent copy of the flags.
type Snapshot struct {
	DisasterMode bool                 `json:"disaster_mode"`
	DDoSMode     bool                 `json:"ddos_mode"`
	Expires      map[string]time.Time `json:"expires,omitempty"`
}

// Stats tracks injection activity
type Stats struct {
	TotalRequests     int64     `json:"total_requests"`
	FailedRequests    int64     `json:"failed_requests"`
	DelayedRequests   int64     `json:"delayed_requests"`
	Toggles           int64     `json:"toggles"`
	LastRecoveryTime  time.Time `json:"last_recovery_time"`
	LastInjectionTime time.Time `json:"last_injection_time"`
}

// Change describes one flag transition, whether from a toggle or an expiry.
type Change struct {
	Flag      string // canonical flag name: disaster or ddos
	Mode      string // name the caller used, or Flag on expiry
	Active    bool
	Recovered bool // reverted by auto-recovery
}
