package types

import (
	"regexp"
)

// FUNCTIONAL DISCOVERY: Regex compiled once at package initialization
// for better performance in high-frequency validation scenarios
var (
	userIDRegex    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	clockTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// IsValidUserID checks if a user ID meets format requirements
// FUNCTIONAL DISCOVERY: 64 characters leaves room for canonical UUIDs
func IsValidUserID(userID string) bool {
	if len(userID) < 1 || len(userID) > 64 {
		return false
	}
	return userIDRegex.MatchString(userID)
}

// ParseRole converts a wire string into a Role
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleStudent, RoleTeacher, RoleParent:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Validate ensures an identity can be attached to a channel or request
func (i Identity) Validate() error {
	if !IsValidUserID(i.UserID) {
		return ErrInvalidUserID
	}
	if !i.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// IsValidEmotion checks the emotion against the closed enumeration
func IsValidEmotion(emotion string) bool {
	switch emotion {
	case EmotionHappy, EmotionSad, EmotionStressed, EmotionFocused, EmotionConfused, EmotionExcited:
		return true
	default:
		return false
	}
}

// Validate ensures an emotion entry is recordable
func (e *EmotionEntry) Validate() error {
	if !IsValidEmotion(e.Emotion) {
		return ErrInvalidEmotion
	}
	if e.Intensity < 1 || e.Intensity > 10 {
		return ErrInvalidIntensity
	}
	return nil
}

// Validate ensures a timetable entry describes a weekly slot
func (t *TimetableEntry) Validate() error {
	if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
		return ErrInvalidDayOfWeek
	}
	if !clockTimeRegex.MatchString(t.StartTime) || !clockTimeRegex.MatchString(t.EndTime) {
		return ErrInvalidClockTime
	}
	return nil
}
