package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/TrySpaceOrg/simulith-go/internal/logging"
	"github.com/tarm/serial"
)

// SerialPort abstracts tarm/serial for testability.
type SerialPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

func openHardwarePort(name string, baud int, readTimeout time.Duration) (SerialPort, error) {
	cfg := &serial.Config{Name: name, Baud: baud, ReadTimeout: readTimeout}
	return serial.OpenPort(cfg)
}

// SerialBridge relays bytes between a Serial bus endpoint and a real
// hardware UART device node, letting a simulated peripheral bus drive an
// actual serial port (e.g. a hardware-in-the-loop test rig).
type SerialBridge struct {
	bus  *Serial
	port SerialPort
	name string
}

// OpenSerialBridge opens devName at baud and wires it to bus. Call Run to
// start relaying; call Close to tear both sides down.
func OpenSerialBridge(bus *Serial, devName string, baud int) (*SerialBridge, error) {
	port, err := openHardwarePort(devName, baud, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("bus: open hardware port %s: %w", devName, err)
	}
	return &SerialBridge{bus: bus, port: port, name: devName}, nil
}

// Run relays bytes in both directions until ctx is canceled. Hardware ->
// bus reads happen on the calling goroutine's loop; bus -> hardware writes
// are polled alongside at the same cadence, since both sides of Serial are
// already non-blocking.
func (br *SerialBridge) Run(ctx context.Context) {
	readBuf := make([]byte, 256)
	pollBuf := make([]byte, 256)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := br.bus.Available()
			if err == nil && ok {
				n, err := br.bus.Receive(pollBuf)
				if err == nil && n > 0 {
					if _, werr := br.port.Write(pollBuf[:n]); werr != nil {
						logging.L().Warn("serial_bridge_write_error", "name", br.name, "error", werr)
					}
				}
			}
			n, err := br.port.Read(readBuf)
			if err != nil {
				continue
			}
			if n > 0 {
				if _, serr := br.bus.Send(readBuf[:n]); serr != nil {
					logging.L().Warn("serial_bridge_send_error", "name", br.name, "error", serr)
				}
			}
		}
	}
}

// Close closes the underlying hardware port. The caller is responsible for
// closing the bus side separately.
func (br *SerialBridge) Close() error {
	return br.port.Close()
}
