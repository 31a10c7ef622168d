package goals

import "perfcycle/internal/apperror"

var transitions = map[string][]string{
	StatusScheduled:  {StatusInProgress, StatusCompleted},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  nil,
}

func ValidStatus(status string) bool {
	_, ok := transitions[status]
	return ok
}

// CheckTransition reports whether a work item may move from one status to
// another. Staying in the same status is always allowed.
func CheckTransition(from, to string) error {
	if !ValidStatus(to) {
		return apperror.Validationf("status must be one of scheduled, in-progress, completed")
	}
	if from == to {
		return nil
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return apperror.Validationf("cannot move status from %s to %s", from, to)
}
