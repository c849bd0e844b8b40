package wiimote

import "testing"

func TestPool(t *testing.T) {
	p := NewPool()
	a, b, dead := newFakeTransport("a"), newFakeTransport("b"), newFakeTransport("dead")
	dead.connected = false

	p.Put(a)
	p.Put(dead)
	p.Put(b)
	if p.Len() != 2 || !dead.closed {
		t.Fatalf("Len() = %d, dead closed = %v", p.Len(), dead.closed)
	}

	if got := p.Take("b"); got != b {
		t.Errorf("Take(b) = %v", got)
	}
	if got := p.Take("b"); got != nil {
		t.Errorf("Take(b) twice = %v", got)
	}

	a.connected = false
	if got := p.TakeAny(); got != nil {
		t.Errorf("TakeAny() returned a disconnected transport")
	}
	if !a.closed || p.Len() != 0 {
		t.Errorf("disconnected transport not dropped")
	}

	c := newFakeTransport("c")
	p.Put(c)
	if err := p.CloseAll(); err != nil || !c.closed || p.Len() != 0 {
		t.Errorf("CloseAll() = %v, closed %v, len %d", err, c.closed, p.Len())
	}
}
