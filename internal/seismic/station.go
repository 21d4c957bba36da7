package seismic

import "fmt"

// Station is a named recording site. Its location is fixed at construction;
// events accumulate in the order they are added.
//
// AddEvent must not be called concurrently on the same Station.
type Station struct {
	name     string
	location Point
	events   []WaveArrivalEvent
}

// NewStation creates a station with no events. Names need not be unique.
func NewStation(name string, location Point) *Station {
	return &Station{name: name, location: location}
}

func (s *Station) Name() string { return s.name }

func (s *Station) Location() Point { return s.location }

// AddEvent appends an event and returns the station for chaining.
func (s *Station) AddEvent(e WaveArrivalEvent) *Station {
	s.events = append(s.events, e)
	return s
}

// Events returns a copy of the recorded events, oldest first.
func (s *Station) Events() []WaveArrivalEvent {
	out := make([]WaveArrivalEvent, len(s.events))
	copy(out, s.events)
	return out
}

// FirstEvent returns the earliest added event, the one an Earthquake built
// from stations uses as the station's distance estimate.
func (s *Station) FirstEvent() (WaveArrivalEvent, bool) {
	if len(s.events) == 0 {
		return WaveArrivalEvent{}, false
	}
	return s.events[0], true
}

func (s *Station) String() string {
	return fmt.Sprintf("%s at %s", s.name, s.location)
}
