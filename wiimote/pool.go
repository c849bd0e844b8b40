package wiimote

import (
	"sync"

	"github.com/riking/wiimote/wmpc"
)

// Pool keeps open transports of closed Devices for reuse.  It is safe for
// concurrent use.
type Pool struct {
	mu         sync.Mutex
	transports []wmpc.Transport
}

func NewPool() *Pool {
	return &Pool{}
}

// Put stores t.  Disconnected transports are closed instead.
func (p *Pool) Put(t wmpc.Transport) {
	if !t.IsConnected() {
		t.Close()
		return
	}
	p.mu.Lock()
	p.transports = append(p.transports, t)
	p.mu.Unlock()
}

// Take removes and returns the pooled transport for serial, or nil.
func (p *Pool) Take(serial string) wmpc.Transport {
	return p.take(func(t wmpc.Transport) bool { return t.Serial() == serial })
}

// TakeAny removes and returns any live pooled transport, or nil.
func (p *Pool) TakeAny() wmpc.Transport {
	return p.take(func(wmpc.Transport) bool { return true })
}

func (p *Pool) take(want func(wmpc.Transport) bool) wmpc.Transport {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < len(p.transports); {
		t := p.transports[i]
		if !t.IsConnected() {
			t.Close()
			p.transports = append(p.transports[:i], p.transports[i+1:]...)
			continue
		}
		if want(t) {
			p.transports = append(p.transports[:i], p.transports[i+1:]...)
			return t
		}
		i++
	}
	return nil
}

// Serials lists the serial numbers of pooled transports.
func (p *Pool) Serials() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []string
	for _, t := range p.transports {
		out = append(out, t.Serial())
	}
	return out
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.transports)
}

// CloseAll closes and forgets every pooled transport, returning the first
// error.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	ts := p.transports
	p.transports = nil
	p.mu.Unlock()

	var first error
	for _, t := range ts {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
