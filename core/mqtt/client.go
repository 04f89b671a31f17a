package mqtt

import "time"

// Client represents an MQTT client capable of sending trip orders and
// waiting for acknowledgments from drones.
type Client interface {
	// SendTripOrder sends a trip assignment to the given drone and returns
	// the command identifier used to track the acknowledgment.
	SendTripOrder(droneID, tripID string) (commandID string, err error)

	// WaitForAck waits for an acknowledgment for the provided command
	// identifier or until the timeout expires.
	WaitForAck(commandID string, timeout time.Duration) (bool, error)
}
