// Package luxafor drives a Luxafor USB flag through its hidraw character
// device and maps ticket-cache state onto a fixed light priority table.
package luxafor

import (
	"fmt"
	"os"
)

// RGB is one LED color.
type RGB struct {
	R, G, B byte
}

var (
	Red     = RGB{255, 0, 0}
	Yellow  = RGB{255, 180, 0}
	Green   = RGB{0, 255, 0}
	Magenta = RGB{255, 0, 255}
)

// Device is the minimal light surface the controller needs. Every command
// returning an error signals the connection is gone and must be reopened.
type Device interface {
	Off() error
	Static(c RGB) error
	Strobe(c RGB, speed, repeat byte) error
	Close() error
}

// Luxafor HID report bytes.
const (
	cmdStatic = 0x01
	cmdStrobe = 0x03
	ledAll    = 0xFF
)

type hidrawDevice struct {
	f *os.File
}

// Open opens the flag's hidraw node (e.g. /dev/hidraw0) and blinks it dimly
// once as a connection test.
func Open(path string) (Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("luxafor: opening %s: %w", path, err)
	}
	d := &hidrawDevice{f: f}
	if err := d.Static(RGB{20, 20, 20}); err != nil {
		f.Close()
		return nil, err
	}
	if err := d.Off(); err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

func (d *hidrawDevice) send(report []byte) error {
	if _, err := d.f.Write(report); err != nil {
		return fmt.Errorf("luxafor: writing report: %w", err)
	}
	return nil
}

func (d *hidrawDevice) Static(c RGB) error {
	return d.send([]byte{cmdStatic, ledAll, c.R, c.G, c.B})
}

func (d *hidrawDevice) Strobe(c RGB, speed, repeat byte) error {
	return d.send([]byte{cmdStrobe, ledAll, c.R, c.G, c.B, speed, 0, repeat})
}

func (d *hidrawDevice) Off() error {
	return d.Static(RGB{})
}

func (d *hidrawDevice) Close() error {
	return d.f.Close()
}
