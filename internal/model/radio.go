package model

// Segment speed and pause bounds
const (
	MinSegmentSpeed     = 0.7
	MaxSegmentSpeed     = 1.2
	DefaultSegmentSpeed = 1.0
	MinSegmentPauseMS   = 300
	MaxSegmentPauseMS   = 1500
	DefaultSegmentPause = 500
)

// RadioParams are the input parameters of a generate_radio job
type RadioParams struct {
	ArtistName          string    `json:"artist_name" validate:"required,min=1,max=200"`
	EnableDJTransitions bool      `json:"enable_dj_transitions"`
	DJOptions           DJOptions `json:"dj_options"`
	OpeningPhrase       bool      `json:"opening_phrase"`
}

// DJOptions configures generated transitions
type DJOptions struct {
	Style  DJStyle  `json:"style,omitempty" validate:"omitempty,oneof=energetic smooth storytelling technical poetic"`
	Length DJLength `json:"length,omitempty" validate:"omitempty,oneof=short medium long"`
	Speed  float64  `json:"speed,omitempty" validate:"omitempty,min=0.7,max=1.2"`
}

// WithDefaults fills unset options.
func (o DJOptions) WithDefaults() DJOptions {
	if o.Style == "" {
		o.Style = DJStyleSmooth
	}
	if o.Length == "" {
		o.Length = DJLengthMedium
	}
	if o.Speed == 0 {
		o.Speed = DefaultSegmentSpeed
	}
	return o
}

// Song is a catalog entry. Its identity is Path.
type Song struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Path   string `json:"path"`
}

// SongTranscript is the side-car transcript stored next to a song
type SongTranscript struct {
	Artist     string `json:"artist"`
	SongName   string `json:"song_name"`
	Transcript string `json:"transcript"`
}

// Segment is a span of speech with its rate and trailing pause
type Segment struct {
	Text    string  `json:"audio"`
	Speed   float64 `json:"speed"`
	PauseMS int     `json:"break_after"`
}

// AudioArtifact references an audio file produced or consumed by the pipeline
type AudioArtifact struct {
	Path  string       `json:"path"`
	Role  ArtifactRole `json:"role"`
	Index int          `json:"index"`
	JobID string       `json:"job_id,omitempty"`
}
