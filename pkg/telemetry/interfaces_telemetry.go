package telemetry

// Publisher is the producer-facing entry point into the hub. Implementations
// must apply same-channel publishes in submission order.
type Publisher interface {
	Publish(channel string, msg *Message) error
}
