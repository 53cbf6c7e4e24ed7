package protocol

// ErrorCode describes why a request failed.
type ErrorCode string

const (
	ErrorCodeBadRequest           ErrorCode = "bad_request"
	ErrorCodeNotFound             ErrorCode = "not_found"
	ErrorCodeSessionAlreadyJoined ErrorCode = "session_already_joined"
	ErrorCodeSessionNotJoined     ErrorCode = "session_not_joined"
	ErrorCodeTooManyRequests      ErrorCode = "too_many_requests"
	ErrorCodeInternalServerError  ErrorCode = "internal_server_error"
)

type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message,omitempty"`
}

type JoinRequest struct {
	// The global id of the session to join. A new session is created when
	// empty.
	SessionID string `json:"session_id,omitempty"`

	// Initial store values applied when a new session is created.
	State map[string]any `json:"state,omitempty"`
}

type JoinResponse struct {
	SessionID     string `json:"session_id"`
	SessionUUID   string `json:"session_uuid"`
	ParticipantID uint32 `json:"participant_id"`
}

type Change struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type StoreChanges struct {
	Changes []Change `json:"changes"`
}

type StoreState struct {
	Values map[string]any `json:"values"`
}

type Pointer struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type DragMode string

const (
	DragModeRotate DragMode = "rotate"
	DragModePan    DragMode = "pan"
)

type Drag struct {
	DX   float64  `json:"dx"`
	DY   float64  `json:"dy"`
	Mode DragMode `json:"mode,omitempty"`
}

type Wheel struct {
	Delta float64 `json:"delta"`
}

type Command struct {
	Name      string    `json:"name"`
	IDs       []string  `json:"ids,omitempty"`
	Variances []float64 `json:"variances,omitempty"`
}

type CommandResponse struct {
	Name   string `json:"name"`
	Result any    `json:"result,omitempty"`
}

type SnapshotRequest struct {
	Format string `json:"format"`
}

type Snapshot struct {
	Format string `json:"format"`
	Data   []byte `json:"data"`
}

type Camera struct {
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
}

type Event struct {
	Name          string   `json:"name"`
	PointID       string   `json:"point_id,omitempty"`
	Selection     []string `json:"selection,omitempty"`
	ParticipantID uint32   `json:"participant_id,omitempty"`
}

// Event names.
const (
	EventHover            = "hover"
	EventLeave            = "leave"
	EventClick            = "click"
	EventSelection        = "selection"
	EventParticipantJoin  = "participant_join"
	EventParticipantLeave = "participant_leave"
)
