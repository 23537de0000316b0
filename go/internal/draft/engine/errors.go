package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/rules"
)

var (
	ErrNotYourTurn          = errors.New("team is not on the clock")
	ErrDraftNotStarted      = errors.New("draft has not started")
	ErrDraftAlreadyComplete = errors.New("draft is already complete")
	ErrTimerNotExpired      = errors.New("pick timer has not expired")
	ErrNoLegalDriver        = errors.New("no available driver satisfies the roster constraints")
)

// ViolationError is returned when a proposed pick fails constraint
// validation. It carries every violated rule so callers can present the
// complete list.
type ViolationError struct {
	Violations []rules.Violation
}

func (e *ViolationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("pick violates roster constraints: %s", strings.Join(msgs, "; "))
}

// AsViolationError unwraps err into a *ViolationError if it is one.
func AsViolationError(err error) (*ViolationError, bool) {
	var ve *ViolationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
