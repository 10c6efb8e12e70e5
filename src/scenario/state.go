package scenario

// State is a step of a scenario run. Runs only move forward; any error moves them to
// StateFailed after teardown.
type State int

const (
	StateInit State = iota
	StateProvisioned
	StateCollectedV1
	StateSwitched
	StateCollectedV2
	StateCompared
	StateReported
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateInit:        "INIT",
	StateProvisioned: "PROVISIONED",
	StateCollectedV1: "COLLECTED_V1",
	StateSwitched:    "SWITCHED",
	StateCollectedV2: "COLLECTED_V2",
	StateCompared:    "COMPARED",
	StateReported:    "REPORTED",
	StateDone:        "DONE",
	StateFailed:      "FAILED",
}

func (s State) String() string {
	return stateNames[s]
}
