package mapping

import (
	"fmt"
	"strconv"
)

// MalformedConfigError reports a mapping file that cannot be interpreted.
type MalformedConfigError struct {
	Path   string // empty when the config did not come from a file
	Reason string
	Cause  error
}

func (e *MalformedConfigError) Error() string {
	msg := "malformed mapping config"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *MalformedConfigError) Unwrap() error {
	return e.Cause
}

func ruleReason(index int, msg string) string {
	return "rules[" + strconv.Itoa(index) + "]: " + msg
}

func quoteKind(k Kind) string {
	return strconv.Quote(string(k))
}
