package model

import (
	"encoding/json"
	"time"
)

// Job represents a background job in the system
type Job struct {
	ID           string          `json:"id"`
	Kind         JobKind         `json:"kind"`
	Params       json.RawMessage `json:"params"`
	Status       JobStatus       `json:"status"`
	CurrentStage *Stage          `json:"current_step"`
	Progress     int             `json:"progress"`
	Result       *JobResult      `json:"result,omitempty"`
	Error        *string         `json:"error"`
	LogFile      string          `json:"log_file"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// JobResult is filled in stage by stage; on failure it holds whatever
// the finished stages produced.
type JobResult struct {
	Script          *ScriptResult `json:"script,omitempty"`
	Segments        []Segment     `json:"segments,omitempty"`
	AudioFiles      []string      `json:"audio_files,omitempty"`
	TransitionFiles []string      `json:"transition_files,omitempty"`
	IntroFile       string        `json:"intro_file,omitempty"`
	OutputFile      string        `json:"output_file,omitempty"`
	OutputURL       string        `json:"output_url,omitempty"`
	DurationSeconds float64       `json:"duration_seconds,omitempty"`
}

// ScriptResult holds the output of script generation
type ScriptResult struct {
	Artist        string `json:"artist"`
	TotalSongs    int    `json:"total_songs"`
	Prompt        string `json:"radio_intro_prompt"`
	Script        string `json:"ai_radio_intro"`
	OpeningPhrase string `json:"opening_phrase,omitempty"`
}

// Clone returns a deep copy safe to hand out to readers.
func (r *JobResult) Clone() *JobResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Script != nil {
		s := *r.Script
		out.Script = &s
	}
	out.Segments = append([]Segment(nil), r.Segments...)
	out.AudioFiles = append([]string(nil), r.AudioFiles...)
	out.TransitionFiles = append([]string(nil), r.TransitionFiles...)
	return &out
}

// JobView is the read-only status snapshot returned to callers
type JobView struct {
	ID          string     `json:"id"`
	Kind        JobKind    `json:"kind"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep *Stage     `json:"current_step"`
	Error       *string    `json:"error"`
	LogFile     string     `json:"log_file"`
	OutputFile  *string    `json:"output_file"`
	OutputURL   string     `json:"output_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Result      *JobResult `json:"-"`
}

// View builds a snapshot of the job. The caller must hold whatever lock
// guards j.
func (j *Job) View() JobView {
	v := JobView{
		ID:        j.ID,
		Kind:      j.Kind,
		Status:    j.Status,
		Progress:  j.Progress,
		LogFile:   j.LogFile,
		CreatedAt: j.CreatedAt,
		Result:    j.Result.Clone(),
	}
	if j.CurrentStage != nil {
		s := *j.CurrentStage
		v.CurrentStep = &s
	}
	if j.Error != nil {
		e := *j.Error
		v.Error = &e
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		v.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		v.CompletedAt = &t
	}
	if j.Result != nil {
		if j.Result.OutputFile != "" {
			f := j.Result.OutputFile
			v.OutputFile = &f
		}
		v.OutputURL = j.Result.OutputURL
	}
	return v
}

// SubmitReceipt is returned when a job is accepted
type SubmitReceipt struct {
	TaskID  string    `json:"task_id"`
	LogFile string    `json:"log_file"`
	Status  JobStatus `json:"status"`
}

// CancelReceipt is returned when a job is canceled
type CancelReceipt struct {
	TaskID string    `json:"task_id"`
	Status JobStatus `json:"status"`
}
