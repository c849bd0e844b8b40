package controller

import (
	"math"
	"sync"
)

// analog changes smaller than this are not reported
const analogThreshold = 0.02

// Tracker polls a Device and reports input changes to a Sink.
type Tracker struct {
	mu     sync.Mutex
	dev    Device
	output Sink

	prevState map[string]float64
	curState  map[string]float64
}

func NewTracker(d Device) *Tracker {
	return &Tracker{dev: d}
}

func (c *Tracker) Device() Device {
	return c.dev
}

func (c *Tracker) BindToOutput(o Sink) {
	c.mu.Lock()
	c.output = o
	c.mu.Unlock()
}

// OnFrame runs one poll cycle of the device and dispatches changes.
func (c *Tracker) OnFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dev.UpdateInput()
	c.prevState = c.curState
	c.curState = Snapshot(c.dev)
	c.dispatchUpdates()
}

// mu must be held
func (c *Tracker) dispatchUpdates() {
	if c.output == nil || c.prevState == nil {
		return
	}
	c.output.BeginUpdate()
	for _, in := range c.dev.Inputs() {
		name := in.GetName()
		cur, prev := c.curState[name], c.prevState[name]
		if cur == prev {
			continue
		}
		if _, isButton := in.(*Button); !isButton && math.Abs(cur-prev) < analogThreshold {
			// keep the reported value as the reference
			c.curState[name] = prev
			continue
		}
		c.output.InputUpdate(c.dev, in, cur)
	}
	c.output.FlushUpdate()
}

func (c *Tracker) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.Close()
}
