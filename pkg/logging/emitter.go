package logging

import (
	"encoding/json"
	"time"

	"github.com/jingkaihe/hushprint/internal/errx"
)

// EmitterConfig names who produced an event.
type EmitterConfig struct {
	SessionID string // edit session id on the client, instance id on the server
	Source    string // "client" or "server"
}

// Emitter records hook registry changes. A nil *Emitter drops everything,
// which is how audit logging is switched off.
type Emitter struct {
	config EmitterConfig
	sinks  []Sink
}

func NewEmitter(cfg EmitterConfig, sinks ...Sink) *Emitter {
	return &Emitter{config: cfg, sinks: sinks}
}

// WithSession scopes e to one edit session. Sinks are shared, so closing
// either emitter closes both.
func (e *Emitter) WithSession(sessionID string) *Emitter {
	if e == nil {
		return nil
	}
	cfg := e.config
	cfg.SessionID = sessionID
	return &Emitter{config: cfg, sinks: e.sinks}
}

// Emit writes one event to every sink. A failing sink does not stop the
// others; the first error is returned.
func (e *Emitter) Emit(eventType, summary string, tags []string, data interface{}) error {
	if e == nil {
		return nil
	}

	event := &Event{
		Timestamp: time.Now().UTC(),
		SessionID: e.config.SessionID,
		Source:    e.config.Source,
		EventType: eventType,
		Summary:   summary,
		Tags:      tags,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return errx.With(ErrEncodePayload, " %s: %w", eventType, err)
		}
		event.Data = raw
	}

	var errs []error
	for _, sink := range e.sinks {
		if err := sink.Write(event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Close closes every sink and returns the first error.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	var errs []error
	for _, sink := range e.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
