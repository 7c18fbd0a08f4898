package service

import "rfid-asset-tracker/internal/model"

// Publisher fans a movement event out to subscribers. Delivery is
// fire-and-forget: no ack, no retry.
type Publisher interface {
	Publish(event model.AssetMovementEvent)
}

// MultiPublisher forwards each event to every configured sink.
type MultiPublisher struct {
	sinks []Publisher
}

// NewMultiPublisher builds a fan-out publisher, dropping nil sinks so
// optional transports (e.g. the Redis relay) compose cleanly.
func NewMultiPublisher(sinks ...Publisher) *MultiPublisher {
	m := &MultiPublisher{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Publish sends the event to all sinks.
func (m *MultiPublisher) Publish(event model.AssetMovementEvent) {
	for _, s := range m.sinks {
		s.Publish(event)
	}
}
