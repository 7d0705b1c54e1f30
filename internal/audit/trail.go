// Package audit provides the append-only event trail threaded through the
// planning pipeline. Trails are values: every append returns a new Trail
// whose slices do not alias the original, so retries and replays keep a
// faithful history.
package audit

// Event is a single named pipeline event with an arbitrary payload.
type Event struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
}

// Iteration marks one pass of the repair loop.
type Iteration struct {
	Iteration int `json:"iteration"`
}

// Trail is the ordered history of a single request.
type Trail struct {
	Events     []Event     `json:"events"`
	Iterations []Iteration `json:"iterations"`
}

// NewTrail returns an empty trail.
func NewTrail() Trail {
	return Trail{}
}

// AppendEvent returns a copy of the trail with one more event. A nil payload
// is recorded as an empty map so serialized trails stay uniform.
func (t Trail) AppendEvent(name string, payload map[string]any) Trail {
	if payload == nil {
		payload = map[string]any{}
	}

	events := make([]Event, len(t.Events), len(t.Events)+1)
	copy(events, t.Events)
	events = append(events, Event{Name: name, Payload: payload})

	return Trail{Events: events, Iterations: t.Iterations}
}

// AppendIteration returns a copy of the trail with one more iteration marker.
func (t Trail) AppendIteration(iteration int) Trail {
	iters := make([]Iteration, len(t.Iterations), len(t.Iterations)+1)
	copy(iters, t.Iterations)
	iters = append(iters, Iteration{Iteration: iteration})

	return Trail{Events: t.Events, Iterations: iters}
}

// LastEvent returns the most recent event and whether one exists.
func (t Trail) LastEvent() (Event, bool) {
	if len(t.Events) == 0 {
		return Event{}, false
	}
	return t.Events[len(t.Events)-1], true
}
