package services

import "testing"

func TestMatchKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "keeps bracketed text", input: "Blinding Lights (Remastered 2020)", want: "blinding lights remastered 2020"},
		{name: "collapses punctuation", input: "Song Title - Single", want: "song title single"},
		{name: "keeps digits", input: "Symphony No. 5", want: "symphony no 5"},
		{name: "keeps feat tokens", input: "Artist feat. Someone", want: "artist feat someone"},
		{name: "trims edges", input: "  (Intro)  ", want: "intro"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchKey(tt.input); got != tt.want {
				t.Fatalf("matchKey: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContainsFragment(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fragment string
		want     bool
	}{
		{name: "case insensitive", value: "Californication", fragment: "CALIFORN", want: true},
		{name: "punctuation ignored", value: "AC/DC", fragment: "ac dc", want: true},
		{name: "prefix of bracketed title", value: "Creep (Acoustic)", fragment: "creep", want: true},
		{name: "inside brackets", value: "Californication (Live)", fragment: "live", want: true},
		{name: "featured artist", value: "Song (feat. Guest)", fragment: "guest", want: true},
		{name: "remaster word", value: "Live Forever (Remastered)", fragment: "remastered", want: true},
		{name: "no match", value: "Paranoid Android", fragment: "karma", want: false},
		{name: "fragment of only symbols compared raw", value: "?? (Mystery)", fragment: "??", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := containsFragment(tt.value, tt.fragment); got != tt.want {
				t.Fatalf("containsFragment(%q, %q): got %v, want %v", tt.value, tt.fragment, got, tt.want)
			}
		})
	}
}
