package models

// Status is a duty status persisted as a fixed string.
type Status string

// Shift statuses, used by assignments and by controllers in shift mode.
const (
	StatusVacation Status = "VACATION"
	StatusSick     Status = "SICK"
	StatusOnDuty   Status = "ON_DUTY"
	StatusOffDuty  Status = "OFF_DUTY"
	StatusUnknown  Status = "UNKNOWN"
)

// Board statuses, used by controllers in board mode (the magnetic board columns).
const (
	StatusFerie Status = "FERIE"
	StatusSyg   Status = "SYG"
	StatusMoedt Status = "MOEDT"
	StatusGaaet Status = "GAAET"
)

// StatusInfo describes how a status is presented and whether it blocks shift closure.
type StatusInfo struct {
	Value      Status `json:"value"`
	Label      string `json:"label"`
	IsBlocking bool   `json:"is_blocking"`
}

// StatusSet is an ordered enumeration of valid statuses.
type StatusSet []StatusInfo

var (
	// ShiftStatuses is the enumeration for shift assignments.
	ShiftStatuses = StatusSet{
		{Value: StatusVacation, Label: "Vacation"},
		{Value: StatusSick, Label: "Sick"},
		{Value: StatusOnDuty, Label: "On duty", IsBlocking: true},
		{Value: StatusOffDuty, Label: "Off duty"},
		{Value: StatusUnknown, Label: "Unknown", IsBlocking: true},
	}

	// BoardStatuses is the enumeration for the simplified board.
	BoardStatuses = StatusSet{
		{Value: StatusFerie, Label: "Ferie"},
		{Value: StatusSyg, Label: "Syg"},
		{Value: StatusMoedt, Label: "Mødt"},
		{Value: StatusGaaet, Label: "Gået"},
	}
)

// Contains reports whether s is a member of the set.
func (set StatusSet) Contains(s Status) bool {
	_, ok := set.Lookup(s)
	return ok
}

// Lookup returns the StatusInfo for s.
func (set StatusSet) Lookup(s Status) (StatusInfo, bool) {
	for _, info := range set {
		if info.Value == s {
			return info, true
		}
	}
	return StatusInfo{}, false
}

// Label returns the display label for s, or s itself when unknown.
func (set StatusSet) Label(s Status) string {
	if info, ok := set.Lookup(s); ok {
		return info.Label
	}
	return string(s)
}

// IsBlocking reports whether an assignment in status s prevents its shift from closing.
func (s Status) IsBlocking() bool {
	return s == StatusOnDuty || s == StatusUnknown
}

// BoardMode selects which enumeration controllers use.
type BoardMode string

const (
	BoardModeShift BoardMode = "shift"
	BoardModeBoard BoardMode = "board"
)

// ControllerStatuses returns the controller enumeration for the mode.
func (m BoardMode) ControllerStatuses() StatusSet {
	if m == BoardModeBoard {
		return BoardStatuses
	}
	return ShiftStatuses
}

// DefaultControllerStatus returns the status new controllers start in.
func (m BoardMode) DefaultControllerStatus() Status {
	if m == BoardModeBoard {
		return StatusGaaet
	}
	return StatusUnknown
}
