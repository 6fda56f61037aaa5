package reading

// StateType represents the lifecycle state of a Reader.
type StateType int

const (
	// StateIdle indicates no playback is active and the queue is empty.
	StateIdle StateType = iota
	// StateReading indicates the playback loop is running.
	StateReading
	// StateStopping indicates a stop was requested while a speech or
	// cleaning call was in flight.
	StateStopping
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// StateMachine validates Reader state transitions. It is not safe for
// concurrent use; the Reader serializes access.
type StateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
	onEnter     map[StateType]func()
	onExit      map[StateType]func()
}

// NewStateMachine creates a new state machine in StateIdle.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:     {StateReading},
			StateReading:  {StateIdle, StateStopping},
			StateStopping: {StateIdle},
		},
		onEnter: make(map[StateType]func()),
		onExit:  make(map[StateType]func()),
	}
}

// CanTransition reports whether moving to the given state is allowed.
func (sm *StateMachine) CanTransition(to StateType) bool {
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			return true
		}
	}
	return false
}

// Transition attempts to transition to the specified state.
func (sm *StateMachine) Transition(to StateType) bool {
	if !sm.CanTransition(to) {
		return false
	}

	if exitFn, ok := sm.onExit[sm.current]; ok && exitFn != nil {
		exitFn()
	}

	sm.current = to

	if enterFn, ok := sm.onEnter[to]; ok && enterFn != nil {
		enterFn()
	}

	return true
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state StateType, fn func()) {
	sm.onEnter[state] = fn
}

// OnExit registers a callback for exiting a state.
func (sm *StateMachine) OnExit(state StateType, fn func()) {
	sm.onExit[state] = fn
}
