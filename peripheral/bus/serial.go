package bus

import (
	"fmt"

	"github.com/TrySpaceOrg/simulith-go/peripheral"
)

// Serial emulates a UART: an unstructured byte stream with no addressing.
type Serial struct {
	ep *peripheral.Endpoint
}

// NewSerial builds a UART-style bus endpoint. addr is host:port; role
// determines whether this side binds (RoleServer) or dials (RoleClient).
func NewSerial(name, addr string, role peripheral.Role) *Serial {
	return &Serial{ep: peripheral.New(name, addr, role)}
}

func (s *Serial) Init() error { return s.ep.Init() }

func (s *Serial) Close() error { return s.ep.Close() }

// Send writes len(p) bytes onto the wire, returning bytes accepted.
func (s *Serial) Send(p []byte) (int, error) { return s.ep.Send(p) }

// Available reports whether at least one byte is waiting to be read.
func (s *Serial) Available() (bool, error) { return s.ep.Available() }

// Receive copies buffered bytes into p, non-blocking.
func (s *Serial) Receive(p []byte) (int, error) { return s.ep.Receive(p) }

// Flush is a no-op: the underlying transport has no separate flush step
// beyond the asyncTx funnel already draining as fast as the peer accepts.
func (s *Serial) Flush() error { return nil }

func (s *Serial) String() string {
	return fmt.Sprintf("serial(%s)", s.ep.Name)
}
