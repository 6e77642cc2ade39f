package bus

import (
	"fmt"

	"github.com/TrySpaceOrg/simulith-go/peripheral"
)

// DigitalIO emulates a single GPIO line: a 2-byte {command, value} message,
// matching original_source/src/simulith_gpio.c's gpio_message_t exactly.
type DigitalIO struct {
	ep *peripheral.Endpoint
}

const (
	gpioCmdRead   = 0
	gpioCmdWrite  = 1
	gpioCmdToggle = 2
)

// NewDigitalIO builds a GPIO-style bus endpoint for one line.
func NewDigitalIO(name, addr string, role peripheral.Role) *DigitalIO {
	return &DigitalIO{ep: peripheral.New(name, addr, role)}
}

func (d *DigitalIO) Init() error  { return d.ep.Init() }
func (d *DigitalIO) Close() error { return d.ep.Close() }

// Write sets the line to value (0 or 1).
func (d *DigitalIO) Write(value bool) error {
	v := byte(0)
	if value {
		v = 1
	}
	_, err := d.ep.Send([]byte{gpioCmdWrite, v})
	return err
}

// Toggle flips the line's current value.
func (d *DigitalIO) Toggle() error {
	_, err := d.ep.Send([]byte{gpioCmdToggle, 0})
	return err
}

// Read requests the current line value. If no reply has been buffered yet
// (the non-blocking peer hasn't answered), it defaults to false rather than
// waiting, matching simulith_gpio_read's EAGAIN-defaults-to-0 behavior.
func (d *DigitalIO) Read() (bool, error) {
	if _, err := d.ep.Send([]byte{gpioCmdRead, 0}); err != nil {
		return false, err
	}
	var buf [2]byte
	n, err := d.ep.Receive(buf[:])
	if err != nil {
		return false, err
	}
	if n < 2 {
		return false, nil
	}
	return buf[1] != 0, nil
}

func (d *DigitalIO) String() string {
	return fmt.Sprintf("gpio(%s)", d.ep.Name)
}
