package observability

import (
	"sync"
	"time"
)

// Activity is a snapshot of the comparison work currently in flight.
type Activity struct {
	Label   string
	Running bool
	Total   int
	Settled int
	Failed  int
	Started time.Time
}

type activityStatus struct {
	mu  sync.RWMutex
	cur Activity
}

var globalStatus = &activityStatus{}

// BeginActivity records the start of a batch over total targets. A batch
// that starts while another is running adds to the open totals.
func BeginActivity(label string, total int) {
	if total <= 0 {
		return
	}
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	if !globalStatus.cur.Running {
		globalStatus.cur = Activity{Label: label, Running: true, Total: total, Started: time.Now()}
		return
	}
	globalStatus.cur.Label = label
	globalStatus.cur.Total += total
}

// RecordSettled counts one target as settled.
func RecordSettled(failed bool) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.cur.Settled++
	if failed {
		globalStatus.cur.Failed++
	}
	if globalStatus.cur.Settled >= globalStatus.cur.Total {
		globalStatus.cur.Running = false
	}
}

// GetActivity retrieves a copy of the current activity.
func GetActivity() Activity {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.cur
}
