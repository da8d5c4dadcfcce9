package client

import "plant-backend/internal/models"

// User-facing messages. Causes are logged, never shown.
const (
	MsgLoadFailed    = "Failed to fetch plants. Please try again."
	MsgCreateFailed  = "Failed to add plant. Please try again."
	MsgAppendFailed  = "Failed to add image. Please try again."
	MsgCreateBlank   = "Plant name and image URL cannot be empty."
	MsgAppendBlank   = "Image URL cannot be empty."
	MsgCreateSuccess = "Plant added successfully!"
	MsgAppendSuccess = "Image added successfully!"
)

// State is one snapshot of what the presentation layer renders.
type State struct {
	Plants         []models.Plant
	Loading        bool
	Error          string
	SuccessMessage string
}

// Clone deep-copies the plant list so snapshots never alias controller state.
func (s State) Clone() State {
	out := s
	out.Plants = make([]models.Plant, len(s.Plants))
	for i, p := range s.Plants {
		out.Plants[i] = p.Clone()
	}
	return out
}

// Outcome is how a user action ended. Callers branch on it, e.g. to clear a
// form only after Succeeded.
type Outcome int

const (
	Rejected  Outcome = iota + 1 // blank input, no API call made
	Succeeded                    // API call succeeded
	Failed                       // API call failed
)

func (o Outcome) String() string {
	switch o {
	case Rejected:
		return "rejected"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// The functions below are the only way State changes. Each returns a new
// State and leaves its input untouched.

// begin resets both messages and marks a request in flight.
func begin(s State) State {
	s = s.Clone()
	s.Loading = true
	s.Error = ""
	s.SuccessMessage = ""
	return s
}

// withError ends the action with msg, for local rejection and API failure.
func withError(s State, msg string) State {
	s = s.Clone()
	s.Loading = false
	s.Error = msg
	return s
}

func loaded(s State, plants []models.Plant) State {
	s = s.Clone()
	s.Loading = false
	s.Plants = make([]models.Plant, len(plants))
	for i, p := range plants {
		s.Plants[i] = p.Clone()
	}
	return s
}

func succeeded(s State, p models.Plant, msg string) State {
	s = s.Clone()
	s.Loading = false
	s.Plants = upsert(s.Plants, p)
	s.SuccessMessage = msg
	return s
}

// applyEvent merges a feed event without touching loading or messages.
func applyEvent(s State, evt models.PlantEvent) State {
	if evt.Plant == nil {
		return s
	}
	switch evt.Event {
	case models.EventPlantCreated, models.EventImageAdded:
	default:
		return s
	}
	s = s.Clone()
	s.Plants = upsert(s.Plants, *evt.Plant)
	return s
}

// upsert replaces the plant with the same id or appends p. The server's
// record is always used as-is.
func upsert(plants []models.Plant, p models.Plant) []models.Plant {
	out := make([]models.Plant, 0, len(plants)+1)
	replaced := false
	for _, existing := range plants {
		if existing.ID == p.ID {
			out = append(out, p.Clone())
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, p.Clone())
	}
	return out
}
