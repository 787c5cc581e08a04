package vad

import (
	"errors"
	"testing"
	"time"
)

func TestParseSampleRate(t *testing.T) {
	tests := []struct {
		hz      int
		wantErr bool
	}{
		{8000, false},
		{16000, false},
		{32000, false},
		{48000, false},
		{0, true},
		{44100, true},
		{24000, true},
	}

	for _, tt := range tests {
		r, err := ParseSampleRate(tt.hz)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedSampleRate) {
				t.Errorf("ParseSampleRate(%d) error = %v, want ErrUnsupportedSampleRate", tt.hz, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSampleRate(%d) error = %v", tt.hz, err)
		}
		if r.Hz() != tt.hz {
			t.Errorf("ParseSampleRate(%d) = %d", tt.hz, r.Hz())
		}
	}
}

func TestFrameLength(t *testing.T) {
	tests := []struct {
		rate SampleRate
		ms   int
		want int
	}{
		{Rate8k, 10, 80},
		{Rate8k, 20, 160},
		{Rate8k, 30, 240},
		{Rate16k, 10, 160},
		{Rate32k, 20, 640},
		{Rate48k, 30, 1440},
		{Rate48k, 15, 0},
		{SampleRate(44100), 10, 0},
	}

	for _, tt := range tests {
		if got := FrameLength(tt.rate, tt.ms); got != tt.want {
			t.Errorf("FrameLength(%v, %d) = %d, want %d", tt.rate, tt.ms, got, tt.want)
		}
	}
}

func TestValidFrameLength(t *testing.T) {
	for _, rate := range SupportedRates() {
		for _, n := range FrameLengths(rate) {
			if !ValidFrameLength(rate, n) {
				t.Errorf("ValidFrameLength(%v, %d) = false", rate, n)
			}
			if ValidFrameLength(rate, n+1) {
				t.Errorf("ValidFrameLength(%v, %d) = true", rate, n+1)
			}
		}
	}
	if ValidFrameLength(SampleRate(44100), 441) {
		t.Error("ValidFrameLength accepted an unsupported rate")
	}
}

func TestFrameDurations(t *testing.T) {
	got := FrameDurations()
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}
	if len(got) != len(want) {
		t.Fatalf("FrameDurations() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FrameDurations()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestModeFromCode(t *testing.T) {
	tests := []struct {
		code int
		want Mode
	}{
		{0, ModeQuality},
		{1, ModeLowBitrate},
		{2, ModeAggressive},
		{3, ModeVeryAggressive},
		{4, ModeQuality},
		{-1, ModeQuality},
	}

	for _, tt := range tests {
		if got := ModeFromCode(tt.code); got != tt.want {
			t.Errorf("ModeFromCode(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"quality", ModeQuality, false},
		{"Low-Bitrate", ModeLowBitrate, false},
		{" aggressive ", ModeAggressive, false},
		{"very_aggressive", ModeVeryAggressive, false},
		{"3", ModeVeryAggressive, false},
		{"7", ModeQuality, true},
		{"loud", ModeQuality, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMode_String(t *testing.T) {
	if ModeVeryAggressive.String() != "very_aggressive" {
		t.Errorf("String() = %q", ModeVeryAggressive.String())
	}
	if Mode(9).String() != "mode(9)" {
		t.Errorf("String() = %q", Mode(9).String())
	}
}
