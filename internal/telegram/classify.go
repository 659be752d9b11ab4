package telegram

import (
	"net/http"
	"strings"

	"github.com/ignite/attendance-checkin/internal/domain"
)

// Provider descriptions the default classifier recognizes.
const (
	descBlocked     = "bot was blocked by the user"
	descNotApproved = "bot can't initiate conversation with a user"
	descChatMissing = "chat not found"
)

// Classifier turns a failed send into a NotificationOutcome. status is the
// HTTP status of a transport-level failure, or 0 when the API answered with
// ok:false in a successful response.
type Classifier interface {
	Classify(status int, description, errText string) domain.NotificationOutcome
}

// DescriptionClassifier matches substrings of the provider's description.
type DescriptionClassifier struct{}

// Classify implements Classifier.
func (DescriptionClassifier) Classify(status int, description, errText string) domain.NotificationOutcome {
	out := domain.Failed(errText)

	if status == 0 {
		switch {
		case strings.Contains(description, descBlocked):
			out.IsBlocked = true
		case strings.Contains(description, descNotApproved):
			out.IsNotApproved = true
		case strings.Contains(description, descChatMissing):
			out.IsChatNotFound = true
		}
		return out
	}

	switch status {
	case http.StatusForbidden:
		if strings.Contains(description, descBlocked) {
			out.IsBlocked = true
		} else if strings.Contains(description, descNotApproved) {
			out.IsNotApproved = true
		}
	case http.StatusBadRequest:
		if strings.Contains(description, descChatMissing) {
			out.IsChatNotFound = true
		}
	}
	return out
}
