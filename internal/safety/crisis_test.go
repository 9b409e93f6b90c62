package safety

import (
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"I want to end my life", true},
		{"sometimes I think about SUICIDE", true},
		{"I dont want to be here anymore", true},
		{"I don't want to exist", true},
		{"there's no point in living", true},
		{"they'd be better off without me", true},
		{"I can't go on like this", true},
		{"thinking about self-harm again", true},
		{"selfharm", true},
		{"I might hurt myself", true},
		{"I want to die", true},

		{"I finished my essay today!", false},
		{"the movie's ending was sad", false},
		{"I killed it at the gym", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Detect(tc.in); got != tc.want {
			t.Errorf("Detect(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestResponse_ListsResources(t *testing.T) {
	for _, want := range []string{"116 123", "988", "1-767", "findahelpline.com"} {
		if !strings.Contains(Response, want) {
			t.Fatalf("crisis response missing %q", want)
		}
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("short", 50); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Preview("héllo world", 5); got != "héllo..." {
		t.Fatalf("got %q", got)
	}
	if got := Preview("abc", 0); got != "abc" {
		t.Fatalf("got %q", got)
	}
}
