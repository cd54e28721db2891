package domain

import (
	"encoding/json"
	"time"
)

// SourceKind selects which acquisition pipeline a job runs.
type SourceKind string

const (
	SourceUpload    SourceKind = "upload"
	SourceYouTube   SourceKind = "youtube"
	SourceInstagram SourceKind = "instagram"
)

// Request is one user-triggered job. It is not modified once submitted.
type Request struct {
	Kind     SourceKind
	FileName string
	Data     []byte
	URL      string
	// Language is an ISO 639-1 hint; empty or "auto" means auto-detect.
	Language string
}

// Segment is a time-bounded slice of a transcript.
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Transcript is the structured output of the speech recognition engine.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// JobStatus tracks each pipeline stage for a single job.
type JobStatus string

const (
	JobStatusIdle         JobStatus = "idle"
	JobStatusQueued       JobStatus = "queued"
	JobStatusValidating   JobStatus = "validating"
	JobStatusAcquiring    JobStatus = "acquiring"
	JobStatusTranscribing JobStatus = "transcribing"
	JobStatusCleaning     JobStatus = "cleaning"
	JobStatusSucceeded    JobStatus = "succeeded"
	JobStatusFailed       JobStatus = "failed"
	JobStatusCancelled    JobStatus = "cancelled"
)

// Terminal reports whether no further transitions can happen.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Report is the single outcome presented to the user for a job.
type Report struct {
	JobID      string     `json:"jobId"`
	Kind       SourceKind `json:"kind"`
	Status     JobStatus  `json:"status"`
	Text       string     `json:"text,omitempty"`
	Language   string     `json:"language,omitempty"`
	Segments   []Segment  `json:"segments,omitempty"`
	Error      *Error     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
}

// Succeeded reports whether the job produced a transcript.
func (r Report) Succeeded() bool {
	return r.Status == JobStatusSucceeded
}

// Transcript rebuilds the transcript carried by a successful report.
func (r Report) Transcript() Transcript {
	return Transcript{
		Text:     r.Text,
		Language: r.Language,
		Segments: r.Segments,
	}
}

// MarshalJSON encodes segment bounds as seconds.
func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	}{
		Start: s.Start.Seconds(),
		End:   s.End.Seconds(),
		Text:  s.Text,
	})
}

// UnmarshalJSON reads segment bounds written by MarshalJSON.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var raw struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Start = time.Duration(raw.Start * float64(time.Second))
	s.End = time.Duration(raw.End * float64(time.Second))
	s.Text = raw.Text
	return nil
}
