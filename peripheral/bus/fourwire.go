package bus

import (
	"fmt"

	"github.com/TrySpaceOrg/simulith-go/peripheral"
)

// FourWire emulates an SPI-style bus: full-duplex register access selected
// by a chip-select index rather than an I2C device address, but otherwise
// exposes the same Write/Read/Transaction surface as TwoWire.
type FourWire struct {
	ep         *peripheral.Endpoint
	BusID      uint8
	ChipSelect uint8
}

const (
	spiCmdRead  = 0
	spiCmdWrite = 1
)

// NewFourWire builds an SPI-style bus endpoint for one chip-select line on busID.
func NewFourWire(name, addr string, role peripheral.Role, busID, chipSelect uint8) *FourWire {
	return &FourWire{
		ep:         peripheral.New(name, addr, role),
		BusID:      busID,
		ChipSelect: chipSelect,
	}
}

func (f *FourWire) Init() error  { return f.ep.Init() }
func (f *FourWire) Close() error { return f.ep.Close() }

// Write sends [cmd=write][busID][chipSelect][data...].
func (f *FourWire) Write(data []byte) error {
	msg := make([]byte, 3+len(data))
	msg[0], msg[1], msg[2] = spiCmdWrite, f.BusID, f.ChipSelect
	copy(msg[3:], data)
	_, err := f.ep.Send(msg)
	return err
}

// Read requests n bytes and returns whatever has already been buffered,
// non-blocking.
func (f *FourWire) Read(n int) ([]byte, error) {
	req := []byte{spiCmdRead, f.BusID, f.ChipSelect, byte(n)}
	if _, err := f.ep.Send(req); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	got, err := f.ep.Receive(out)
	if err != nil {
		return nil, err
	}
	return out[:got], nil
}

// Transaction issues a write immediately followed by a read request, the
// clock-synchronous full-duplex exchange SPI transactions model.
func (f *FourWire) Transaction(write []byte, readLen int) ([]byte, error) {
	if err := f.Write(write); err != nil {
		return nil, err
	}
	return f.Read(readLen)
}

func (f *FourWire) String() string {
	return fmt.Sprintf("spi(bus=%d cs=%d)", f.BusID, f.ChipSelect)
}
