//go:build !linux

package output

import (
	"github.com/pkg/errors"

	"github.com/riking/wiimote/controller"
)

type UInput struct{}

func NewUInput(m ControllerMapping, name string) (*UInput, error) {
	return nil, errors.New("uinput is only available on linux")
}

func (u *UInput) BeginUpdate()                                             {}
func (u *UInput) InputUpdate(controller.Device, controller.Input, float64) {}
func (u *UInput) FlushUpdate() error                                       { return nil }
func (u *UInput) Close() error                                             { return nil }
