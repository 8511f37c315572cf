package topology

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ConsistencyError.
type ErrorKind int

const (
	NodeMismatch        ErrorKind = iota + 1
	AddressMismatch
	PortConflict
	UnknownNode
	PortIndexOutOfRange
)

var errorKindNames = map[ErrorKind]string{
	NodeMismatch:        "node mismatch",
	AddressMismatch:     "address mismatch",
	PortConflict:        "port conflict",
	UnknownNode:         "unknown node",
	PortIndexOutOfRange: "port index out of range",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for use with errors.Is. A *ConsistencyError matches the sentinel
// of its kind.
var (
	ErrNodeMismatch        = errors.New("node mismatch")
	ErrAddressMismatch     = errors.New("address mismatch")
	ErrPortConflict        = errors.New("port conflict")
	ErrUnknownNode         = errors.New("unknown node")
	ErrPortIndexOutOfRange = errors.New("port index out of range")
)

var kindSentinels = map[ErrorKind]error{
	NodeMismatch:        ErrNodeMismatch,
	AddressMismatch:     ErrAddressMismatch,
	PortConflict:        ErrPortConflict,
	UnknownNode:         ErrUnknownNode,
	PortIndexOutOfRange: ErrPortIndexOutOfRange,
}

// A ConsistencyError reports an observation that contradicts what the
// topology already recorded. Which of the detail fields are meaningful
// depends on Kind.
type ConsistencyError struct {
	Kind ErrorKind
	GUID string // node the violation was detected on
	Port int    // offending port, if any

	// Recorded and observed values, rendered for the message.
	Have, Got string
}

func (e *ConsistencyError) Error() string {
	switch e.Kind {
	case NodeMismatch:
		return fmt.Sprintf("node %s: %s: recorded %s, observed %s",
			e.GUID, e.Kind, e.Have, e.Got)
	case AddressMismatch:
		return fmt.Sprintf("node %s: %s: lid %s != %s",
			e.GUID, e.Kind, e.Got, e.Have)
	case PortConflict:
		return fmt.Sprintf("node %s: %s: [%s-%d] is already mapped to [%s]"+
			" while trying to map to [%s]",
			e.GUID, e.Kind, e.GUID, e.Port, e.Have, e.Got)
	case PortIndexOutOfRange:
		return fmt.Sprintf("node %s: %s: invalid port %d, only %s ports exist",
			e.GUID, e.Kind, e.Port, e.Have)
	default:
		return fmt.Sprintf("node %s: %s", e.GUID, e.Kind)
	}
}

// Is reports whether target is the sentinel for e.Kind.
func (e *ConsistencyError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf returns the kind of the first ConsistencyError in err's chain and
// whether there was one.
func KindOf(err error) (ErrorKind, bool) {
	var ce *ConsistencyError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}
