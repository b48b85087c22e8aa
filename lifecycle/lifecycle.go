// Package lifecycle holds the explicit state machines for rentals, deliveries
// and service requests. Each machine is a table of (state, action) -> state;
// anything not in the table is rejected with a *TransitionError.
package lifecycle

import "fmt"

// Action names a requested transition.
type Action string

// TransitionError is returned when an action is not allowed from a state.
type TransitionError struct {
	Machine string
	From    string
	Action  Action
	Reason  string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("cannot %s %s in status %q", e.Action, e.Machine, e.From)
}

type edge[S ~string] struct {
	from   S
	action Action
}

type machine[S ~string] struct {
	name    string
	edges   map[edge[S]]S
	reasons map[edge[S]]string
}

func (m machine[S]) transition(from S, action Action) (S, error) {
	if next, ok := m.edges[edge[S]{from, action}]; ok {
		return next, nil
	}
	return from, &TransitionError{
		Machine: m.name,
		From:    string(from),
		Action:  action,
		Reason:  m.reasons[edge[S]{from, action}],
	}
}

func (m machine[S]) allows(from S, action Action) bool {
	_, ok := m.edges[edge[S]{from, action}]
	return ok
}

func build[S ~string](name string, rules map[Action]struct {
	from []S
	to   S
}) machine[S] {
	m := machine[S]{name: name, edges: map[edge[S]]S{}, reasons: map[edge[S]]string{}}
	for action, r := range rules {
		for _, f := range r.from {
			m.edges[edge[S]{f, action}] = r.to
		}
	}
	return m
}
