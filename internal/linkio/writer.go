package linkio

import (
	"sync"

	"github.com/swarmgrid/formation.control/internal/monitoring"
)

// Writer is a single-writer serial connection that reopens on path change
// or transient I/O failure. One process-wide Writer guards the link; there
// is no multi-subscriber fan-out, since PositionUpdater is the only
// writer.
type Writer struct {
	Factory  PortFactory
	BaudRate int

	mu          sync.Mutex
	currentPath string
	port        Port
}

// NewWriter builds a Writer bound to factory, writing at baudRate.
func NewWriter(factory PortFactory, baudRate int) *Writer {
	return &Writer{Factory: factory, BaudRate: baudRate}
}

// legacyGuard serializes every write to the physical serial link across
// all Writer instances in the process, so a legacy one-shot sender built
// against an older Writer can never interleave a partial record with the
// pipeline's own writes.
var legacyGuard sync.Mutex

// Write sends a line to path, reopening the connection if path changed
// since the last write or the previous write failed. Errors are
// transient by design: the caller should simply retry on the next cycle.
func (w *Writer) Write(path string, line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if path == "" {
		return nil
	}

	if w.port == nil || path != w.currentPath {
		if w.port != nil {
			w.port.Close()
			w.port = nil
		}
		port, err := w.Factory.Open(path, w.BaudRate)
		if err != nil {
			monitoring.Logf("linkio: failed to open serial port %q: %v", path, err)
			return err
		}
		w.port = port
		w.currentPath = path
		monitoring.Logf("linkio: serial port opened: %s", path)
	}

	legacyGuard.Lock()
	_, err := w.port.Write(line)
	legacyGuard.Unlock()
	if err != nil {
		monitoring.Logf("linkio: serial write error, will reconnect next cycle: %v", err)
		w.port.Close()
		w.port = nil
		return err
	}
	return nil
}

// Close releases the underlying port, if open.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.port == nil {
		return nil
	}
	err := w.port.Close()
	w.port = nil
	return err
}
