package ffmpeg

import (
	"slices"
	"testing"
)

func TestClipArgs(t *testing.T) {
	args := ClipArgs("/tmp/in.mp4", "/tmp/abc_reel_1.mp4", 45, 25)

	inIdx := slices.Index(args, "-i")
	if inIdx < 0 || args[inIdx+1] != "/tmp/in.mp4" {
		t.Fatalf("expected -i /tmp/in.mp4 in %v", args)
	}
	ssIdx := slices.Index(args, "-ss")
	if ssIdx < inIdx {
		t.Fatalf("expected -ss after input (output seeking): %v", args)
	}
	wantPairs := map[string]string{
		"-ss":  "45",
		"-t":   "25",
		"-c:v": "libx264",
		"-c:a": "aac",
	}
	for flag, val := range wantPairs {
		i := slices.Index(args, flag)
		if i < 0 || i+1 >= len(args) || args[i+1] != val {
			t.Fatalf("expected %s %s in %v", flag, val, args)
		}
	}
	if !slices.Contains(args, "-y") {
		t.Fatalf("expected overwrite flag in %v", args)
	}
	if !slices.Contains(args, "/tmp/abc_reel_1.mp4") {
		t.Fatalf("expected output path in %v", args)
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := map[float64]string{
		45:   "45",
		12.5: "12.5",
		0:    "0",
	}
	for in, want := range tests {
		if got := formatSeconds(in); got != want {
			t.Fatalf("formatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}
