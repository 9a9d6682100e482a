// Package linkio implements the single outbound serial writer
// PositionUpdater needs: no multi-subscriber fan-out, just
// write-with-reconnect.
package linkio

import "io"

// Port is the minimal interface a serial connection must satisfy, trimmed
// to what an outbound-only writer needs.
type Port interface {
	io.Writer
	io.Closer
}

// PortFactory opens a Port at a given path and baud rate. A
// dependency-injection seam so tests never touch real hardware.
type PortFactory interface {
	Open(path string, baudRate int) (Port, error)
}
