// Package bus provides ready-made peripheral bus shapes (serial UART,
// two-wire/I2C-style, four-wire/SPI-style, digital GPIO) built on top of
// peripheral.Endpoint, plus an optional real-hardware serial passthrough.
package bus

// Base TCP ports for each bus family, matching
// original_source/include/simulith.h exactly. A bus instance's address is
// BasePort+index, one port pair per simulated bus line.
const (
	UARTBasePort = 51000
	I2CBasePort  = 52000
	SPIBasePort  = 53000
	GPIOBasePort = 54000
)
