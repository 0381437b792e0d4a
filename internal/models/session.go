package models

// SessionState holds one session's transient selection. It is rebuilt on
// demand and never persisted to the booking store; only committed bookings
// survive the session.
type SessionState struct {
	SessionID string `json:"session_id"`
	Selected  []int  `json:"selected"`
	Suggested []int  `json:"suggested"`
}

func NewSessionState(sessionID string) *SessionState {
	return &SessionState{SessionID: sessionID}
}

// HasSelected reports whether the seat is currently in the selection.
func (s *SessionState) HasSelected(seat int) bool {
	for _, n := range s.Selected {
		if n == seat {
			return true
		}
	}
	return false
}

// Clone returns an independent copy so callers can mutate freely.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	out := &SessionState{SessionID: s.SessionID}
	if len(s.Selected) > 0 {
		out.Selected = append([]int(nil), s.Selected...)
	}
	if len(s.Suggested) > 0 {
		out.Suggested = append([]int(nil), s.Suggested...)
	}
	return out
}
