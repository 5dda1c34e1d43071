package types

// NoticeKind distinguishes transient confirmations from blocking errors.
type NoticeKind string

// Notice kinds.
const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a user-facing notification raised by a page action.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Title   string     `json:"title,omitempty"`
	Message string     `json:"message"`
}

// Blocking reports whether the notice must be acknowledged by the operator.
func (n Notice) Blocking() bool {
	return n.Kind == NoticeError
}

// Indicator returns the colour used to render the notice.
func (n Notice) Indicator() string {
	if n.Kind == NoticeError {
		return "red"
	}
	return "green"
}
