//go:build !linux

package transport

import (
	"context"

	"github.com/pkg/errors"

	"github.com/riking/wiimote/wmpc"
)

var errNoHidraw = errors.New("hidraw is only available on Linux")

type HidrawInfo struct {
	Devnode string
	Serial  string
	Name    string
	Product uint16
}

type Hotplug struct {
	Action  string
	Devnode string
}

func EnumerateHidraw() ([]HidrawInfo, error) { return nil, errNoHidraw }

func OpenHidraw(HidrawInfo) (wmpc.Transport, error) { return nil, errNoHidraw }

func Monitor(context.Context) (<-chan Hotplug, error) { return nil, errNoHidraw }
