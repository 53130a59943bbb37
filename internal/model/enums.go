package model

// Job status
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job kinds
type JobKind string

const (
	JobKindGenerateRadio JobKind = "generate_radio"
)

// Pipeline stages, in execution order
type Stage string

const (
	StageScriptGeneration   Stage = "script_generation"
	StageScriptSegmentation Stage = "script_segmentation"
	StageAudioGeneration    Stage = "audio_generation"
	StageTransitions        Stage = "transitions"
	StageCombining          Stage = "combining"
	StageCompleted          Stage = "completed"
)

// DJ transition styles
type DJStyle string

const (
	DJStyleEnergetic    DJStyle = "energetic"
	DJStyleSmooth       DJStyle = "smooth"
	DJStyleStorytelling DJStyle = "storytelling"
	DJStyleTechnical    DJStyle = "technical"
	DJStylePoetic       DJStyle = "poetic"
)

// DJ transition lengths
type DJLength string

const (
	DJLengthShort  DJLength = "short"
	DJLengthMedium DJLength = "medium"
	DJLengthLong   DJLength = "long"
)

// Audio artifact roles
type ArtifactRole string

const (
	RoleIntroSegment  ArtifactRole = "intro-segment"
	RoleTransition    ArtifactRole = "transition"
	RoleSong          ArtifactRole = "song"
	RoleCombinedIntro ArtifactRole = "combined-intro"
	RoleFullShow      ArtifactRole = "full-show"
)

// Assembly modes
type AssembleMode string

const (
	AssembleConcat AssembleMode = "concat"
	AssembleFFmpeg AssembleMode = "ffmpeg"
)
