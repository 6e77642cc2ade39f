package bus

import (
	"fmt"

	"github.com/TrySpaceOrg/simulith-go/peripheral"
)

// TwoWire emulates an I2C-style register bus: addressed by a device address
// on a named bus, messages carry a command byte followed by payload.
// Grounded on original_source/include/simulith_i2c.h's i2c_device_t
// (bus_id, device_addr fields).
type TwoWire struct {
	ep         *peripheral.Endpoint
	BusID      uint8
	DeviceAddr uint8
}

const (
	i2cCmdRead  = 0
	i2cCmdWrite = 1
)

// NewTwoWire builds an I2C-style bus endpoint for one device address on busID.
func NewTwoWire(name, addr string, role peripheral.Role, busID, deviceAddr uint8) *TwoWire {
	return &TwoWire{
		ep:         peripheral.New(name, addr, role),
		BusID:      busID,
		DeviceAddr: deviceAddr,
	}
}

func (t *TwoWire) Init() error  { return t.ep.Init() }
func (t *TwoWire) Close() error { return t.ep.Close() }

// Write sends a register-style write: [cmd=write][busID][deviceAddr][data...].
func (t *TwoWire) Write(data []byte) error {
	msg := make([]byte, 3+len(data))
	msg[0], msg[1], msg[2] = i2cCmdWrite, t.BusID, t.DeviceAddr
	copy(msg[3:], data)
	_, err := t.ep.Send(msg)
	return err
}

// Read requests n bytes and returns whatever has already been buffered for
// this transaction from a prior non-blocking poll; it never blocks waiting
// for the peer to respond.
func (t *TwoWire) Read(n int) ([]byte, error) {
	req := []byte{i2cCmdRead, t.BusID, t.DeviceAddr, byte(n)}
	if _, err := t.ep.Send(req); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	got, err := t.ep.Receive(out)
	if err != nil {
		return nil, err
	}
	return out[:got], nil
}

// Transaction issues a write immediately followed by a read request, the
// combined register-access pattern common to I2C devices.
func (t *TwoWire) Transaction(write []byte, readLen int) ([]byte, error) {
	if err := t.Write(write); err != nil {
		return nil, err
	}
	return t.Read(readLen)
}

func (t *TwoWire) String() string {
	return fmt.Sprintf("i2c(bus=%d addr=0x%02x)", t.BusID, t.DeviceAddr)
}
