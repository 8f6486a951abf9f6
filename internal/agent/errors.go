package agent

import (
	"errors"
	"fmt"
)

// ErrStepLimit is returned when the model keeps requesting tools past the
// configured step budget.
var ErrStepLimit = errors.New("agent exceeded the maximum number of steps")

// TurnError wraps any failure of a turn. Its user message forwards
// structured upstream errors verbatim and wraps everything else.
type TurnError struct {
	Err error
}

func (e *TurnError) Error() string { return "agent turn: " + e.Err.Error() }

func (e *TurnError) Unwrap() error { return e.Err }

// UserMessage returns the reply shown to the user for this failure.
func (e *TurnError) UserMessage() string {
	var ufe interface{ UserMessage() string }
	if errors.As(e.Err, &ufe) {
		return ufe.UserMessage()
	}
	return fmt.Sprintf("❌ **Processing Error**\n\n**Details**: %s\n\nPlease try again or check your command format.", e.Err.Error())
}
