package wiimote

import (
	"slices"
	"time"

	"github.com/riking/wiimote/wmpc"
)

// exchangeTimeout is how long a request waits for its answer.
const exchangeTimeout = 5 * time.Second

// exchange is one outstanding expectation of a report.
type exchange struct {
	id       wmpc.ReportID
	match    func(wmpc.InputReport) bool
	callback func(wmpc.InputReport)
	created  time.Time
}

// registry holds exchanges in insertion order.  Expired entries are dropped
// lazily and never see their callback.
type registry struct {
	pending  []*exchange
	now      func() time.Time
	onExpire func(*exchange)
}

func newRegistry(now func() time.Time, onExpire func(*exchange)) *registry {
	return &registry{now: now, onExpire: onExpire}
}

// Expect registers callback for the next report of identity id that match
// accepts.  match may be nil.
func (r *registry) Expect(id wmpc.ReportID, match func(wmpc.InputReport) bool, callback func(wmpc.InputReport)) *exchange {
	e := &exchange{id: id, match: match, callback: callback, created: r.now()}
	r.pending = append(r.pending, e)
	return e
}

func (r *registry) expired(e *exchange, now time.Time) bool {
	return now.Sub(e.created) >= exchangeTimeout
}

// Dispatch hands rep to the first live exchange that accepts it and reports
// whether one did.  The exchange is removed before its callback runs.
func (r *registry) Dispatch(rep wmpc.InputReport) bool {
	now := r.now()
	id := rep.ID()
	for i := 0; i < len(r.pending); {
		e := r.pending[i]
		if r.expired(e, now) {
			r.pending = slices.Delete(r.pending, i, i+1)
			r.expire(e)
			continue
		}
		if e.id == id && (e.match == nil || e.match(rep)) {
			r.pending = slices.Delete(r.pending, i, i+1)
			e.callback(rep)
			return true
		}
		i++
	}
	return false
}

// Cancel removes e without invoking it.  Cancelling an exchange that already
// fired or expired does nothing.
func (r *registry) Cancel(e *exchange) {
	if i := slices.Index(r.pending, e); i >= 0 {
		r.pending = slices.Delete(r.pending, i, i+1)
	}
}

// Pending prunes expired exchanges and returns how many remain.
func (r *registry) Pending() int {
	now := r.now()
	r.pending = slices.DeleteFunc(r.pending, func(e *exchange) bool {
		if r.expired(e, now) {
			r.expire(e)
			return true
		}
		return false
	})
	return len(r.pending)
}

// Clear drops every exchange without invoking callbacks.
func (r *registry) Clear() {
	r.pending = nil
}

func (r *registry) expire(e *exchange) {
	if r.onExpire != nil {
		r.onExpire(e)
	}
}
