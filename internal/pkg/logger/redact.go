package logger

import "regexp"

var botTokenRegex = regexp.MustCompile(`bot\d+:[A-Za-z0-9_-]+`)

// RedactToken masks Telegram bot tokens embedded in a string.
// "https://api.telegram.org/bot123:ABC/sendMessage" → "https://api.telegram.org/bot***/sendMessage"
func RedactToken(s string) string {
	return botTokenRegex.ReplaceAllString(s, "bot***")
}

// MaskID keeps the last three characters of an identifier.
// "123456789" → "***789"
// Identifiers of three characters or fewer are fully masked: "12" → "***"
func MaskID(id string) string {
	r := []rune(id)
	if len(r) <= 3 {
		return "***"
	}
	return "***" + string(r[len(r)-3:])
}
