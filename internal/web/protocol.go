package web

// Client → server message types.
const (
	TypeHello       = "hello"
	TypeStart       = "start"
	TypeStop        = "stop"
	TypeToggle      = "toggle"
	TypeExecute     = "execute"
	TypeResult      = "result"
	TypeError       = "error"
	TypeEnd         = "end"
	TypeSpeechStart = "speech_start"
)

// Server → client message types. TypeError is shared with the client
// direction.
const (
	TypeListen        = "listen"
	TypeStopListening = "stop_listening"
	TypeAnnounce      = "announce"
	TypeStatus        = "status"
	TypeSpeak         = "speak"
	TypeNavigate      = "navigate"
	TypeState         = "state"
)

// clientMessage is any frame sent by the browser. Only the fields relevant to
// Type are set.
type clientMessage struct {
	Type string `json:"type"`

	// hello
	Supported    *bool `json:"supported,omitempty"`
	VoiceEnabled *bool `json:"voice_enabled,omitempty"`

	// execute
	Text string `json:"text,omitempty"`

	// result
	Transcript string  `json:"transcript,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	IsFinal    bool    `json:"is_final,omitempty"`

	// error: the Web Speech API error code.
	Error string `json:"error,omitempty"`
}

type listenFrame struct {
	Type           string `json:"type"`
	Continuous     bool   `json:"continuous"`
	InterimResults bool   `json:"interim_results"`
	Language       string `json:"language"`
	TimeoutMS      int64  `json:"timeout_ms"`
}

type typeFrame struct {
	Type string `json:"type"`
}

type announceFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type statusFrame struct {
	Type   string `json:"type"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

type speakFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type navigateFrame struct {
	Type  string `json:"type"`
	Route string `json:"route"`
}

type stateFrame struct {
	Type         string `json:"type"`
	SessionID    string `json:"session_id"`
	Listening    bool   `json:"listening"`
	Processing   bool   `json:"processing"`
	Transcript   string `json:"transcript"`
	Enabled      bool   `json:"enabled"`
	DialogueStep string `json:"dialogue_step"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
