package hydrator

import "PlantScout/internal/domain"

// EventKind tags one emission of the coordinator.
type EventKind int

const (
	// EventDraft carries a record the moment it is recognized.
	EventDraft EventKind = iota + 1
	// EventPartial carries identity plus the fields one group just filled.
	EventPartial
	// EventFinal carries the fully merged record with DoneLoading set.
	EventFinal
	// EventAllDispatched fires once, after every draft had its groups dispatched.
	EventAllDispatched
	// EventError reports a failure of the candidate stream.
	EventError
	// EventClose is the last event of a session.
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventDraft:
		return "draft"
	case EventPartial:
		return "partial"
	case EventFinal:
		return "final"
	case EventAllDispatched:
		return "allDispatched"
	case EventError:
		return "error"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event is one item on the session queue. Plant is empty for sentinel kinds.
type Event struct {
	Kind  EventKind
	Plant domain.Plant
	Err   error
}
