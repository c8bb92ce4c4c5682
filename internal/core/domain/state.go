package domain

// Phase identifies which variant an AcquisitionState holds.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseGeoDenied
	PhaseLoaded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseGeoDenied:
		return "geo_denied"
	case PhaseLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// AcquisitionState is the controller's current phase. A Loaded state always
// carries a record; the other phases carry none. Values are only built through
// the constructors below.
type AcquisitionState struct {
	phase  Phase
	record WeatherRecord
}

// Idle is the initial, transient state.
func Idle() AcquisitionState {
	return AcquisitionState{phase: PhaseIdle}
}

// Loading means a request is in flight.
func Loading() AcquisitionState {
	return AcquisitionState{phase: PhaseLoading}
}

// GeoDenied means the geolocation path failed and the user must search manually.
func GeoDenied() AcquisitionState {
	return AcquisitionState{phase: PhaseGeoDenied}
}

// Loaded wraps an accepted record.
func Loaded(record WeatherRecord) AcquisitionState {
	return AcquisitionState{phase: PhaseLoaded, record: record}
}

// Phase returns the variant tag.
func (s AcquisitionState) Phase() Phase {
	return s.phase
}

// Record returns the record and true when the state is Loaded.
func (s AcquisitionState) Record() (WeatherRecord, bool) {
	if s.phase != PhaseLoaded {
		return WeatherRecord{}, false
	}

	return s.record, true
}

// Settled reports whether the state is not Loading.
func (s AcquisitionState) Settled() bool {
	return s.phase != PhaseLoading
}

func (s AcquisitionState) String() string {
	if s.phase == PhaseLoaded {
		return s.phase.String() + "(" + s.record.Location + ")"
	}

	return s.phase.String()
}
