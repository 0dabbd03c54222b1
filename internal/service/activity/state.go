package activity

// Phase of the activity fetch loop
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseExhausted
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseExhausted:
		return "exhausted"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// State of the fetch loop.
// Page is the next page to request, it starts at 1 and advances on every non-empty page.
// Loading is set while a request for Page is outstanding.
type State struct {
	Phase   Phase
	Page    int
	HasMore bool
	Loading bool
	Reason  string
}

func initialState() State {
	return State{Phase: PhaseIdle, Page: 1, HasMore: true}
}

type event interface {
	isEvent()
}

type (
	// Criteria changed or new credential: start over from page 1
	eventReset struct{}

	eventRequested struct{}

	eventSucceeded struct {
		count   int
		hasMore bool
	}

	eventFailed struct {
		reason string
	}
)

func (eventReset) isEvent()     {}
func (eventRequested) isEvent() {}
func (eventSucceeded) isEvent() {}
func (eventFailed) isEvent()    {}

// canRequest reports whether a new page request may start from s
func (s State) canRequest() bool {
	return !s.Loading && s.Phase != PhaseExhausted && s.HasMore
}

// reduce is the only place the fetch loop changes state
func reduce(s State, e event) State {
	switch e := e.(type) {
	case eventReset:
		return initialState()

	case eventRequested:
		if !s.canRequest() {
			return s
		}
		s.Phase = PhaseFetching
		s.Loading = true
		s.Reason = ""
		return s

	case eventSucceeded:
		if !s.Loading {
			return s
		}
		s.Loading = false
		if e.count > 0 {
			s.Page++
		}
		s.HasMore = e.hasMore
		if s.HasMore {
			s.Phase = PhaseFetching
		} else {
			s.Phase = PhaseExhausted
		}
		return s

	case eventFailed:
		if !s.Loading {
			return s
		}
		// Page and HasMore stay so the same page can be requested again
		s.Loading = false
		s.Phase = PhaseErrored
		s.Reason = e.reason
		return s

	default:
		return s
	}
}
