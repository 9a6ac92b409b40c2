package domain

import (
	"fmt"
	"strings"
)

// AspectRatio enumerates supported output framings.
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
)

// ParseAspectRatio validates a client-supplied aspect ratio. The empty
// string selects the landscape default.
func ParseAspectRatio(s string) (AspectRatio, error) {
	switch AspectRatio(strings.TrimSpace(s)) {
	case "":
		return AspectLandscape, nil
	case AspectLandscape:
		return AspectLandscape, nil
	case AspectPortrait:
		return AspectPortrait, nil
	}
	return "", Validation(fmt.Sprintf("aspect_ratio must be %q or %q", AspectLandscape, AspectPortrait))
}

func (a AspectRatio) String() string { return string(a) }

// NormalizePrompt trims the prompt and rejects blank input before any
// upstream call is made.
func NormalizePrompt(s string) (string, error) {
	p := strings.TrimSpace(s)
	if p == "" {
		return "", Validation("prompt is required")
	}
	return p, nil
}
