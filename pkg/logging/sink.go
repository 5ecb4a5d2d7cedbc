package logging

// Sink receives hook audit events. The emitter shares one event value
// across sinks, so a Sink must not modify it. Sinks may be written from
// the session and server goroutines at once.
type Sink interface {
	Write(event *Event) error
	Close() error
}
