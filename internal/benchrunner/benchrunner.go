// Package benchrunner drives throughput measurements of a bounded queue over
// a given backend. Because a queue instance has a single owner, the runner
// works in phases: a fill phase enqueues entries back to back, then a drain
// phase dequeues until the queue reports empty.
package benchrunner

import (
	"bytes"
	"time"

	"github.com/fanatics-live/persistent-queue/pkg/boundedqueue"
)

// Result holds the measurements of one fill/drain run.
type Result struct {
	Offered      int64         // entries offered during the fill phase
	Accepted     int64         // entries retained (memory or backend)
	Drained      int64         // entries dequeued during the drain phase
	FillElapsed  time.Duration // wall time of the fill phase
	DrainElapsed time.Duration // wall time of the drain phase
}

// FillThroughput returns offered entries per second during the fill phase.
func (r Result) FillThroughput() float64 {
	if r.FillElapsed <= 0 {
		return 0
	}
	return float64(r.Offered) / r.FillElapsed.Seconds()
}

// DrainThroughput returns dequeued entries per second during the drain phase.
func (r Result) DrainThroughput() float64 {
	if r.DrainElapsed <= 0 {
		return 0
	}
	return float64(r.Drained) / r.DrainElapsed.Seconds()
}

// Run offers entryCount payloads of payloadSize bytes to the queue and then
// drains it to empty, timing both phases.
func Run(q *boundedqueue.Queue[[]byte], entryCount, payloadSize int) (Result, error) {
	var res Result
	payload := bytes.Repeat([]byte{0xA5}, payloadSize)

	start := time.Now()
	for i := 0; i < entryCount; i++ {
		accepted, err := q.Enqueue(payload)
		if err != nil {
			return res, err
		}
		res.Offered++
		if accepted {
			res.Accepted++
		}
	}
	res.FillElapsed = time.Since(start)

	start = time.Now()
	for {
		_, ok, err := q.Dequeue()
		if err != nil {
			return res, err
		}
		if !ok {
			break
		}
		res.Drained++
	}
	res.DrainElapsed = time.Since(start)

	return res, nil
}
