package jobs

import "github.com/nguyentantai21042004/video-transcriber/internal/domain"

// IsActive reports whether a status belongs to a job still in flight.
func IsActive(status domain.JobStatus) bool {
	switch status {
	case domain.JobStatusQueued,
		domain.JobStatusValidating,
		domain.JobStatusAcquiring,
		domain.JobStatusTranscribing,
		domain.JobStatusCleaning:
		return true
	default:
		return false
	}
}

// CanTransition enforces the job state machine edges.
func CanTransition(from, to domain.JobStatus) bool {
	if to == domain.JobStatusCancelled {
		return IsActive(from)
	}

	switch from {
	case domain.JobStatusIdle:
		return to == domain.JobStatusQueued || to == domain.JobStatusValidating
	case domain.JobStatusQueued:
		return to == domain.JobStatusValidating
	case domain.JobStatusValidating:
		return to == domain.JobStatusAcquiring || to == domain.JobStatusFailed
	case domain.JobStatusAcquiring:
		// A partially written upload still goes through cleaning.
		return to == domain.JobStatusTranscribing || to == domain.JobStatusCleaning || to == domain.JobStatusFailed
	case domain.JobStatusTranscribing:
		return to == domain.JobStatusCleaning
	case domain.JobStatusCleaning:
		return to == domain.JobStatusSucceeded || to == domain.JobStatusFailed
	default:
		return false
	}
}
