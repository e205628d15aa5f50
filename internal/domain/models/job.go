package models

// JobStatus is the lifecycle state of one asynchronous query job. The
// numeric values are the backend's wire encoding.
type JobStatus int

const (
	JobPending   JobStatus = 1
	JobStarted   JobStatus = 2
	JobSuccess   JobStatus = 3
	JobFailure   JobStatus = 4
	JobCancelled JobStatus = 5
)

// Terminal reports whether the job has finished, one way or another.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobSuccess, JobFailure, JobCancelled:
		return true
	default:
		return false
	}
}

func (s JobStatus) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobStarted:
		return "started"
	case JobSuccess:
		return "success"
	case JobFailure:
		return "failure"
	case JobCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// JobSpec describes one job submission: either a saved parametrized query
// (QueryID + Parameters) or an ad-hoc SQL text (Query + DataSourceID).
type JobSpec struct {
	// Name labels the job in logs and metrics.
	Name string

	QueryID    int
	Parameters map[string]interface{}

	Query        string
	DataSourceID int
}

// Saved reports whether the spec references a saved query.
func (s JobSpec) Saved() bool { return s.QueryID > 0 }

// JobOutcome is the final state of one driven job. Status JobSuccess
// implies a non-zero ResultID; a success reported without a result handle
// is downgraded to JobCancelled before it gets here.
type JobOutcome struct {
	Status   JobStatus
	ResultID int
}

// JobRow is one row of a job result, keyed by column name. Values are
// loosely typed and must be coerced before use.
type JobRow map[string]interface{}
