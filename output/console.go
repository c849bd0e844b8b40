// Package output holds controller.Sink implementations.
package output

import (
	"fmt"
	"io"

	"github.com/riking/wiimote/controller"
)

// Console prints input changes, one line each.  Analog inputs are only
// printed when Analog is set.
type Console struct {
	w      io.Writer
	i      int
	Analog bool
	err    error
}

func NewConsole(w io.Writer, i int) *Console {
	return &Console{w: w, i: i}
}

func (c *Console) BeginUpdate() {
	c.err = nil
}

func (c *Console) InputUpdate(d controller.Device, in controller.Input, value float64) {
	if c.err != nil {
		return
	}
	if _, isButton := in.(*controller.Button); isButton {
		pressed := "pressed"
		if value == 0 {
			pressed = "released"
		}
		_, c.err = fmt.Fprintf(c.w, "[%s %d] %s %s\n", d.GetName(), c.i, in.GetName(), pressed)
		return
	}
	if c.Analog {
		_, c.err = fmt.Fprintf(c.w, "[%s %d] %s %.2f\n", d.GetName(), c.i, in.GetName(), value)
	}
}

func (c *Console) FlushUpdate() error {
	return c.err
}
