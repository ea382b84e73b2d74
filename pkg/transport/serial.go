package transport

import (
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate is the rate the camera auto-detects out of power-on.
const DefaultBaudRate = 115200

// OpenSerial opens a serial device in 8N1 mode.
func OpenSerial(name string, baudRate int) (*Stream, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, describeSerialError(err))
	}
	return NewStream(port), nil
}

// Ports lists serial devices on this machine.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

func describeSerialError(err error) error {
	var portErr *serial.PortError
	if !errors.As(err, &portErr) {
		return err
	}
	switch portErr.Code() {
	case serial.PortNotFound:
		return fmt.Errorf("port not found: %w", err)
	case serial.PortBusy:
		return fmt.Errorf("port busy: %w", err)
	case serial.PermissionDenied:
		return fmt.Errorf("permission denied: %w", err)
	case serial.InvalidSpeed:
		return fmt.Errorf("unsupported baud rate: %w", err)
	}
	return err
}
