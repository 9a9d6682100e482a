package linkio

import "go.bug.st/serial"

// RealPortFactory opens actual serial hardware via go.bug.st/serial, 8-N-1
// at the configured baud rate.
type RealPortFactory struct{}

// Open implements PortFactory.
func (RealPortFactory) Open(path string, baudRate int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}
