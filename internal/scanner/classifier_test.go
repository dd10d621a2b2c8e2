package scanner

import "testing"

func TestIsAudioPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want bool
	}{
		{"/music/track.mp3", true},
		{"/music/track.FLAC", true},
		{"/music/track.m4a", true},
		{"/music/track.opus", true},
		{"/music/cover.jpg", false},
		{"/music/notes.txt", false},
		{"/music/track", false},
		{"/music/.mp3.bak", false},
	}

	for _, tc := range cases {
		if got := IsAudioPath(tc.path); got != tc.want {
			t.Errorf("IsAudioPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIsImagePath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want bool
	}{
		{"/music/cover.jpg", true},
		{"/music/cover.JPEG", true},
		{"/music/cover.png", true},
		{"/music/cover.webp", true},
		{"/music/cover.gif", false},
		{"/music/track.mp3", false},
	}

	for _, tc := range cases {
		if got := IsImagePath(tc.path); got != tc.want {
			t.Errorf("IsImagePath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
