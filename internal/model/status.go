package model

// Status is the lifecycle vocabulary shared by service requests, complaints and appointments.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusAccepted   Status = "ACCEPTED"
	StatusCompleted  Status = "COMPLETED"
	StatusRejected   Status = "REJECTED"
)

// AllStatuses lists every status in workflow order.
var AllStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusAccepted,
	StatusCompleted,
	StatusRejected,
}

// IsTerminal reports whether no further transition is defined from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// NonTerminalStatuses are the statuses that still hold an appointment slot.
var NonTerminalStatuses = []Status{StatusPending, StatusInProgress, StatusAccepted}

// EntityKind names the record types driven through the lifecycle.
type EntityKind string

const (
	KindServiceRequest EntityKind = "service_request"
	KindComplaint      EntityKind = "complaint"
	KindAppointment    EntityKind = "appointment"
)

// Label is the human wording used in notification messages.
func (k EntityKind) Label() string {
	switch k {
	case KindServiceRequest:
		return "service request"
	case KindComplaint:
		return "complaint"
	case KindAppointment:
		return "appointment"
	default:
		return string(k)
	}
}

// StatusCounts is a per-status tally for dashboards.
type StatusCounts map[Status]int

func (c StatusCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

type StatusSummary struct {
	ByStatus StatusCounts `json:"by_status"`
	Total    int          `json:"total"`
}

func Summarize(counts StatusCounts) StatusSummary {
	return StatusSummary{ByStatus: counts, Total: counts.Total()}
}

// DashboardStats is the dashboard view for one actor. The top-level tally
// covers service requests. Complaints are omitted for officers and the
// active officer count is shown to administrators only.
type DashboardStats struct {
	StatusSummary
	Complaints     *StatusSummary `json:"complaints,omitempty"`
	ActiveOfficers *int           `json:"active_officers,omitempty"`
}
