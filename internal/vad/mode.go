// internal/vad/mode.go
package vad

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode is the aggressiveness of the classifier. Higher modes report voice less
// often: fewer false positives, more missed speech.
type Mode int

const (
	ModeQuality Mode = iota
	ModeLowBitrate
	ModeAggressive
	ModeVeryAggressive
)

var modeNames = [...]string{"quality", "low_bitrate", "aggressive", "very_aggressive"}

// ModeFromCode maps an integer code 0-3 to a Mode. Any other code yields
// ModeQuality; callers relying on the integer boundary get the default instead of
// an error.
func ModeFromCode(code int) Mode {
	m := Mode(code)
	if !m.Valid() {
		return ModeQuality
	}
	return m
}

// ParseMode accepts a mode name ("quality", "low_bitrate", "aggressive",
// "very_aggressive", dashes allowed) or its digit code.
func ParseMode(s string) (Mode, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	if code, err := strconv.Atoi(name); err == nil && Mode(code).Valid() {
		return Mode(code), nil
	}
	return ModeQuality, fmt.Errorf("unknown vad mode %q", s)
}

// Valid reports whether m is one of the four defined modes.
func (m Mode) Valid() bool {
	return m >= ModeQuality && m <= ModeVeryAggressive
}

// Code returns the integer code of m.
func (m Mode) Code() int {
	return int(m)
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}
