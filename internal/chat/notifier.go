package chat

// ErrorNotifier turns a stream of errors into notifications, announcing each distinct error once
type ErrorNotifier struct {
	last string
}

// Notify returns the message to show for err, and whether to show it. A nil error resets the
// notifier so the next occurrence of an earlier error is announced again.
func (n *ErrorNotifier) Notify(err error) (string, bool) {
	if err == nil {
		n.last = ""
		return "", false
	}
	msg := err.Error()
	if msg == "" || msg == n.last {
		return "", false
	}
	n.last = msg
	return msg, true
}
