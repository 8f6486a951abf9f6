package dynalist

import (
	"errors"
	"fmt"

	"github.com/hay-kot/dyna/internal/core/outline"
)

// Response codes returned in the _code field.
const (
	CodeOK              = "Ok"
	CodeInvalid         = "Invalid"
	CodeInvalidToken    = "InvalidToken"
	CodeTooManyRequests = "TooManyRequests"
	CodeUnauthorized    = "Unauthorized"
	CodeNotFound        = "NotFound"
	CodeNodeNotFound    = "NodeNotFound"
	CodeLockFail        = "LockFail"
)

// UserFacingPrefix starts every user-facing Dynalist error message.
const UserFacingPrefix = "❌ **Dynalist Error**"

// APIError is a non-Ok response from the Dynalist API.
type APIError struct {
	Endpoint string
	Code     string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dynalist %s: %s", e.Endpoint, e.Code)
	}
	return fmt.Sprintf("dynalist %s: %s: %s", e.Endpoint, e.Code, e.Message)
}

// Is lets errors.Is match outline.ErrInvalidCredential.
func (e *APIError) Is(target error) bool {
	return target == outline.ErrInvalidCredential && e.Code == CodeInvalidToken
}

// UserMessage renders the error for chat users.
func (e *APIError) UserMessage() string {
	msg := fmt.Sprintf("%s\n\n**Code**: %s", UserFacingPrefix, e.Code)
	if e.Message != "" {
		msg += fmt.Sprintf("\n**Details**: %s", e.Message)
	}
	if hint := hintFor(e.Code); hint != "" {
		msg += "\n\n" + hint
	}
	return msg
}

func hintFor(code string) string {
	switch code {
	case CodeInvalidToken:
		return "Your Dynalist token is invalid or expired. Send a new one with `/token YOUR_TOKEN`."
	case CodeTooManyRequests:
		return "Dynalist rate limit reached. Please wait a moment and try again."
	case CodeUnauthorized:
		return "Your token does not have access to this document."
	case CodeNotFound, CodeNodeNotFound:
		return "The document or item no longer exists. Ask me to list your documents again."
	case CodeLockFail:
		return "The document is being edited elsewhere. Please try again."
	default:
		return ""
	}
}

// ErrNodeNotFound is returned when a node id is absent from a document.
var ErrNodeNotFound = errors.New("node not found")
