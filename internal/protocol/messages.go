package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	ClientName      string    `json:"client_name"`
	ResumeToken     string    `json:"resume_token,omitempty"`
	Viewport        *Viewport `json:"viewport,omitempty"`
}

// Viewport is the client's drawing surface in pixels, used to project CURSOR gestures.
type Viewport struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	SessionID       string       `json:"session_id"`
	ResumeToken     string       `json:"resume_token"`
	Resumed         bool         `json:"resumed,omitempty"`
	PuzzleParams    PuzzleParams `json:"puzzle_params"`
}

type PuzzleParams struct {
	GridSize   int     `json:"grid_size"`
	MinCubes   int     `json:"min_cubes"`
	MaxCubes   int     `json:"max_cubes"`
	Removals   int     `json:"removals"`
	Decoys     int     `json:"decoys"`
	Tolerance  float64 `json:"tolerance"`
	HitHistory int     `json:"hit_history"`
}

// STATE (server -> client): full view of the session after every change.
type StateMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	SessionID       string       `json:"session_id"`
	Puzzle          uint64       `json:"puzzle"`
	Seq             uint64       `json:"seq"`
	TargetSize      int          `json:"target_size"`
	Cubes           []CubeRef    `json:"cubes"`
	Occupancy       string       `json:"occupancy"`
	Preview         [3]int       `json:"preview"`
	Silhouettes     Silhouettes  `json:"silhouettes"`
	Camera          CameraState  `json:"camera"`
	Orbiting        bool         `json:"orbiting"`
	Hits            [][3]float64 `json:"hits,omitempty"`
	Checks          int          `json:"checks"`
	Solved          bool         `json:"solved"`
}

// CubeRef pairs a player cube with the stable handle clients key their render objects by.
type CubeRef struct {
	Cell   [3]int `json:"cell"`
	Handle string `json:"handle"`
}

type Silhouettes struct {
	Top   [][]bool `json:"top"`
	Front [][]bool `json:"front"`
	Left  [][]bool `json:"left"`
}

type CameraState struct {
	Theta         float64    `json:"theta"`
	Phi           float64    `json:"phi"`
	Radius        float64    `json:"radius"`
	FovDeg        float64    `json:"fov_deg"`
	Position      [3]float64 `json:"position"`
	LookDirection [3]float64 `json:"look_direction"`
}

// GESTURE (client -> server). Exactly one of Ray and Cursor is set.
type GestureMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Kind            string     `json:"kind"`
	Ray             *RayReq    `json:"ray,omitempty"`
	Cursor          *CursorReq `json:"cursor,omitempty"`
	Mods            ModsReq    `json:"mods,omitempty"`
}

type RayReq struct {
	Origin [3]float64 `json:"origin"`
	Dir    [3]float64 `json:"dir"`
}

// CursorReq is a pixel position; the viewport from HELLO is used when W/H are zero.
type CursorReq struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w,omitempty"`
	H float64 `json:"h,omitempty"`
}

type ModsReq struct {
	Camera bool `json:"camera,omitempty"`
}

// ORBIT (client -> server)
type OrbitMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Phase           string  `json:"phase"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
}

// NEW_PUZZLE and CHECK (client -> server) carry no payload.
type NewPuzzleMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

type CheckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// RESULT (server -> client)
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Puzzle          uint64 `json:"puzzle"`
	Solved          bool   `json:"solved"`
	Checks          int    `json:"checks"`
}

// OUTCOME (server -> client): what one gesture changed.
type OutcomeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Kind            string   `json:"kind"`
	Added           *CubeRef `json:"added,omitempty"`
	Removed         *CubeRef `json:"removed,omitempty"`
	Preview         [3]int   `json:"preview"`
	Hit             *HitRef  `json:"hit,omitempty"`
}

type HitRef struct {
	Cell   [3]int     `json:"cell"`
	Point  [3]float64 `json:"point"`
	T      float64    `json:"t"`
	Face   string     `json:"face"`
	Ground bool       `json:"ground,omitempty"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
