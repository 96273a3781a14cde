// Package input screens user-supplied values before they reach a prompt or a shell.
package input

import (
	"regexp"
	"strings"
)

// shellMetachars matches the characters stripped by Sanitize.
var shellMetachars = regexp.MustCompile("[;&|`$<>]")

// injectionTriggers are lowercase phrases that mark an attempt to steer the model.
var injectionTriggers = []string{
	"ignore previous",
	"disregard above",
	"as an ai",
	"you are now",
}

// Sanitize removes shell metacharacters from text.
func Sanitize(text string) string {
	return shellMetachars.ReplaceAllString(text, "")
}

// DetectInjection returns the first trigger phrase found in text, matched case-insensitively.
func DetectInjection(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, trigger := range injectionTriggers {
		if strings.Contains(lowered, trigger) {
			return trigger, true
		}
	}
	return "", false
}

// Triggers returns a copy of the injection denylist.
func Triggers() []string {
	return append([]string(nil), injectionTriggers...)
}
