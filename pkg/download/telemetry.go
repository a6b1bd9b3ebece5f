package download

import (
	"time"

	"github.com/glorpus-work/fetchd/internal/logger"
)

// transferState is owned by one running transfer.
type transferState struct {
	downloaded int64
	// total is 0 when the server did not declare a size.
	total int64
}

// telemetry turns the byte count of a transfer into coarse and detailed samples.
//
// Coarse samples fire whenever the integer percentage grows by at least one point,
// and once at 100. Detailed samples fire at most once per interval of wall time;
// speed is measured over the window since the previous detailed sample.
//
// A declared size the body does not match is replaced by the received byte count at
// the end of the stream, so a completed transfer with a declared size ends on 100.
type telemetry struct {
	id       string
	obs      Observer
	now      Clock
	interval time.Duration

	lastPercent int
	sent100     bool
	sizeDropped bool

	lastSampleTime  time.Time
	lastSampleBytes int64
}

func newTelemetry(id string, obs Observer, now Clock, interval time.Duration) *telemetry {
	return &telemetry{
		id:             id,
		obs:            obs,
		now:            now,
		interval:       interval,
		lastSampleTime: now(),
	}
}

// percentOf is floor(downloaded*100/total), capped at 100, or 0 for an unknown total.
func percentOf(downloaded, total int64) int {
	if total <= 0 {
		return 0
	}
	p := downloaded * 100 / total
	if p > 100 {
		p = 100
	}
	return int(p)
}

func (t *telemetry) observe(st *transferState) {
	if st.total > 0 && st.downloaded > st.total {
		logger.Warn("body is larger than the declared size, size now unknown", logger.Fields{
			"id":       t.id,
			"declared": st.total,
			"received": st.downloaded,
		})
		st.total = 0
		t.sizeDropped = true
	}
	t.coarse(st)
	t.detailed(st)
}

// finish runs once the body is exhausted. A size that was never declared stays unknown.
func (t *telemetry) finish(st *transferState) {
	switch {
	case t.sizeDropped:
	case st.total > 0 && st.downloaded < st.total:
		logger.Warn("body is smaller than the declared size", logger.Fields{
			"id":       t.id,
			"declared": st.total,
			"received": st.downloaded,
		})
	default:
		return
	}
	st.total = st.downloaded
	t.coarse(st)
}

func (t *telemetry) coarse(st *transferState) {
	if st.total <= 0 {
		return
	}
	p := percentOf(st.downloaded, st.total)
	switch {
	case p == 100:
		if t.sent100 {
			return
		}
		t.sent100 = true
	case p >= t.lastPercent+1:
	default:
		return
	}
	t.lastPercent = p
	t.obs.OnProgress(Progress{ID: t.id, Percent: p})
}

func (t *telemetry) detailed(st *transferState) {
	now := t.now()
	elapsed := now.Sub(t.lastSampleTime)
	if elapsed < t.interval {
		return
	}
	secs := elapsed.Seconds()
	if secs <= 0 {
		return
	}

	speed := float64(st.downloaded-t.lastSampleBytes) / secs
	d := Detail{
		ID:             t.id,
		Percent:        percentOf(st.downloaded, st.total),
		Downloaded:     st.downloaded,
		Total:          st.total,
		BytesPerSecond: speed,
	}
	if st.total > 0 && speed > 0 {
		remaining := st.total - st.downloaded
		if remaining < 0 {
			remaining = 0
		}
		eta := float64(remaining) / speed
		d.ETA = &eta
	}

	t.lastSampleTime = now
	t.lastSampleBytes = st.downloaded
	t.obs.OnDetail(d)
}
