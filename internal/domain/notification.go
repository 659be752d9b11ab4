package domain

// NotificationOutcome is the classified result of one message send.
// At most one of the Is* flags is set, and only when Success is false.
type NotificationOutcome struct {
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	IsBlocked      bool   `json:"isBlocked"`
	IsNotApproved  bool   `json:"isNotApproved"`
	IsChatNotFound bool   `json:"isChatNotFound"`
}

// Delivered returns a successful outcome.
func Delivered() NotificationOutcome {
	return NotificationOutcome{Success: true}
}

// Failed returns a generic failure carrying the raw error text.
func Failed(errText string) NotificationOutcome {
	return NotificationOutcome{Error: errText}
}
