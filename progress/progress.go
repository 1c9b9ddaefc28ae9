// Package progress tracks and reports fractional completion of a long-running
// operation (typically an ffmpeg subprocess). Progress is observational only —
// per §4.2 it never gates success, so a reporter that never ticks simply means
// no progress was ever published, not a failure.
package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/reelify/clip-engine/log"
)

// Clock is package-level so tests can substitute clock.NewMock().
var Clock = clock.New()

var progressReportBuckets = []float64{0, 0.25, 0.5, 0.75, 1}

const minProgressReportInterval = 10 * time.Second
const progressCheckInterval = 1 * time.Second

// OnUpdate is invoked with a monotonically increasing progress value in
// [0,1] whenever a new bucket is crossed or minProgressReportInterval elapses.
type OnUpdate func(progress float64)

// Reporter samples a progress function on a ticker and republishes it via
// OnUpdate, scaled into a caller-chosen [start,end] sub-range so multiple
// pipeline stages (download, convert) can each own a slice of 0..1.
type Reporter struct {
	ctx      context.Context
	cancel   context.CancelFunc
	taskID   string
	onUpdate OnUpdate

	mu                   sync.Mutex
	getProgress          func() float64
	scaleStart, scaleEnd float64

	lastReport   time.Time
	lastProgress float64
}

func NewReporter(ctx context.Context, taskID string, onUpdate OnUpdate) *Reporter {
	ctx, cancel := context.WithCancel(ctx)
	p := &Reporter{
		ctx:      ctx,
		cancel:   cancel,
		taskID:   taskID,
		onUpdate: onUpdate,
	}
	go p.mainLoop()
	return p
}

func (p *Reporter) Stop() {
	p.cancel()
}

// Track sets the progress function and the sub-range it should report into.
// A subsequent Track call starts its range where the previous one ended.
func (p *Reporter) Track(getProgress func() float64, end float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if end < p.scaleStart || end > 1 {
		log.LogError(p.taskID, fmt.Sprintf("invalid end progress set taskID=%s lastProgress=%f endProgress=%f", p.taskID, p.lastProgress, end), errors.New("invalid end progress set"))
		if end > 1 {
			end = 1
		} else {
			end = p.scaleStart
		}
	}
	p.getProgress, p.scaleStart, p.scaleEnd = getProgress, p.scaleEnd, end
}

func (p *Reporter) Set(val float64) {
	p.Track(func() float64 { return 1 }, val)
}

func (p *Reporter) TrackCount(getCount func() uint64, size uint64, endProgress float64) {
	p.Track(func() float64 {
		if size == 0 {
			return 0
		}
		return float64(getCount()) / float64(size)
	}, endProgress)
}

func (p *Reporter) mainLoop() {
	defer func() {
		if r := recover(); r != nil {
			log.LogError(p.taskID, fmt.Sprintf("panic reporting progress: value=%q stack:\n%s", r, string(debug.Stack())), errors.New("panic reporting task progress"))
		}
	}()
	timer := Clock.Ticker(progressCheckInterval)
	defer timer.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-timer.C:
			p.reportOnce()
		}
	}
}

func (p *Reporter) reportOnce() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getProgress == nil {
		return
	}

	progress := p.calcProgress()
	if progress <= p.lastProgress {
		return
	}
	if !shouldReportProgress(progress, p.lastProgress, p.lastReport) {
		return
	}

	p.onUpdate(progress)
	p.lastReport, p.lastProgress = Clock.Now(), progress
}

func shouldReportProgress(newP, old float64, lastReportedAt time.Time) bool {
	return progressBucket(newP) != progressBucket(old) ||
		Clock.Since(lastReportedAt) >= minProgressReportInterval
}

func (p *Reporter) calcProgress() float64 {
	val := p.getProgress()
	val = math.Max(val, 0)
	val = math.Min(val, 0.99)
	val = p.scaleStart + val*(p.scaleEnd-p.scaleStart)
	val = math.Round(val*1000) / 1000
	return val
}

func progressBucket(progress float64) int {
	return sort.SearchFloat64s(progressReportBuckets, progress)
}
