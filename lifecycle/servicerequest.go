package lifecycle

// ServiceRequestStatus is the ticket state of a post-rental service request.
type ServiceRequestStatus string

const (
	RequestOpen       ServiceRequestStatus = "open"
	RequestAssigned   ServiceRequestStatus = "assigned"
	RequestInProgress ServiceRequestStatus = "in_progress"
	RequestResolved   ServiceRequestStatus = "resolved"
	RequestClosed     ServiceRequestStatus = "closed"
	RequestCancelled  ServiceRequestStatus = "cancelled"
)

var requestStatuses = []ServiceRequestStatus{
	RequestOpen, RequestAssigned, RequestInProgress, RequestResolved, RequestClosed, RequestCancelled,
}

// Service request actions
const (
	RequestAssign        Action = "assign"
	RequestScheduleVisit Action = "schedule a visit for"
	RequestStart         Action = "start"
	RequestResolve       Action = "resolve"
	RequestClose         Action = "close"
	RequestCancel        Action = "cancel"
	RequestRate          Action = "rate"
)

var requestMachine = func() machine[ServiceRequestStatus] {
	live := []ServiceRequestStatus{RequestOpen, RequestAssigned, RequestInProgress, RequestResolved}
	m := build[ServiceRequestStatus]("service request", map[Action]struct {
		from []ServiceRequestStatus
		to   ServiceRequestStatus
	}{
		RequestAssign:        {live, RequestAssigned},
		RequestScheduleVisit: {live, RequestInProgress},
		RequestStart:         {[]ServiceRequestStatus{RequestAssigned, RequestInProgress, RequestResolved}, RequestInProgress},
		RequestResolve:       {live, RequestResolved},
		RequestClose:         {[]ServiceRequestStatus{RequestResolved}, RequestClosed},
		RequestCancel:        {[]ServiceRequestStatus{RequestOpen, RequestAssigned}, RequestCancelled},
		RequestRate:          {[]ServiceRequestStatus{RequestResolved}, RequestResolved},
	})
	m.reasons[edge[ServiceRequestStatus]{RequestOpen, RequestStart}] = "Please assign the request first"
	for _, s := range requestStatuses {
		if s != RequestResolved {
			m.reasons[edge[ServiceRequestStatus]{s, RequestClose}] = "Can only close resolved service requests"
			m.reasons[edge[ServiceRequestStatus]{s, RequestRate}] = "Can only rate resolved service requests"
		}
		if s != RequestOpen && s != RequestAssigned {
			m.reasons[edge[ServiceRequestStatus]{s, RequestCancel}] = "Can only cancel open or assigned service requests"
		}
	}
	return m
}()

// Transition applies action to s.
func (s ServiceRequestStatus) Transition(action Action) (ServiceRequestStatus, error) {
	return requestMachine.transition(s, action)
}

// Valid reports whether s is a known service request status.
func (s ServiceRequestStatus) Valid() bool {
	for _, v := range requestStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s ServiceRequestStatus) Terminal() bool {
	return s == RequestClosed || s == RequestCancelled
}
