// Package validation checks request payloads before any streaming or
// persistence happens. Failures map to the 400 error envelope.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxMessageLen  = 4096
	maxQuestionLen = 4096
	maxAnswerLen   = 65536
	maxSessionID   = 128
)

// ValidateTurnInput checks the body of a stream request.
func ValidateTurnInput(message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message is required")
	}
	if utf8.RuneCountInString(message) > maxMessageLen {
		return fmt.Errorf("message exceeds %d characters", maxMessageLen)
	}
	return nil
}

// ValidateSessionID checks a client-supplied session identifier.
func ValidateSessionID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("session id is required")
	}
	if len(id) > maxSessionID {
		return fmt.Errorf("session id too long")
	}
	if strings.ContainsAny(id, ": \t\n") {
		return fmt.Errorf("session id contains invalid characters")
	}
	return nil
}

// ValidateMessagePatch checks the fields of a partial message update.
// Nil fields are untouched and skip validation.
func ValidateMessagePatch(question, answer *string) error {
	if question != nil {
		if strings.TrimSpace(*question) == "" {
			return fmt.Errorf("question cannot be empty")
		}
		if utf8.RuneCountInString(*question) > maxQuestionLen {
			return fmt.Errorf("question exceeds %d characters", maxQuestionLen)
		}
	}
	if answer != nil {
		if strings.TrimSpace(*answer) == "" {
			return fmt.Errorf("answer cannot be empty")
		}
		if utf8.RuneCountInString(*answer) > maxAnswerLen {
			return fmt.Errorf("answer exceeds %d characters", maxAnswerLen)
		}
	}
	return nil
}

// ValidateNewMessage checks a direct message-create request.
func ValidateNewMessage(sessionID, question, answer string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("question is required")
	}
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("answer is required")
	}
	if utf8.RuneCountInString(question) > maxQuestionLen {
		return fmt.Errorf("question exceeds %d characters", maxQuestionLen)
	}
	if utf8.RuneCountInString(answer) > maxAnswerLen {
		return fmt.Errorf("answer exceeds %d characters", maxAnswerLen)
	}
	return nil
}
