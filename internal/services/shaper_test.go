package services

import "testing"

func TestLimitResponse(t *testing.T) {
	cases := []struct {
		name             string
		in               string
		sentences, words int
		want             string
	}{
		{
			name:      "drops sentences past the cap",
			in:        "Hello there. How are you doing today friend. This part is dropped.",
			sentences: 2, words: 30,
			want: "Hello there. How are you doing today friend.",
		},
		{
			name:      "short reply untouched",
			in:        "Not much, just chilling online.",
			sentences: 2, words: 30,
			want: "Not much, just chilling online.",
		},
		{
			name:      "terminator appended when missing",
			in:        "sounds good to me",
			sentences: 2, words: 30,
			want: "sounds good to me.",
		},
		{
			name:      "word cap clips long single sentence",
			in:        "one two three four five six",
			sentences: 2, words: 4,
			want: "one two three four.",
		},
		{
			name:      "empty input stays empty",
			in:        "",
			sentences: 2, words: 30,
			want: "",
		},
		{
			name:      "whitespace only stays empty",
			in:        "   \n  ",
			sentences: 2, words: 30,
			want: "",
		},
		{
			name:      "blank fragments between periods are skipped",
			in:        "First.. Second.. Third.",
			sentences: 2, words: 30,
			want: "First. Second.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LimitResponse(tc.in, tc.sentences, tc.words); got != tc.want {
				t.Errorf("LimitResponse(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// Shaping an already-shaped reply must not change it further.
func TestLimitResponse_Idempotent(t *testing.T) {
	inputs := []string{
		"Hello there. How are you doing today friend. This part is dropped.",
		"sounds good to me",
		"one two three four five six",
	}
	for _, in := range inputs {
		once := LimitResponse(in, 2, 30)
		twice := LimitResponse(once, 2, 30)
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestIsGoodResponse(t *testing.T) {
	good := []string{
		"Sure, here's a joke!",
		"Not much, just chilling online.",
		"yes",
	}
	for _, s := range good {
		if !IsGoodResponse(s) {
			t.Errorf("IsGoodResponse(%q) = false", s)
		}
	}

	bad := []string{
		"",
		"ok",
		"  a  ",
		"I cannot help with that",
		"As an AI, I don't have opinions.",
		"I'm an AI assistant built to help.",
		"Well, I don't know about that one.",
		"Sorry, I can't do that.",
		"I am a large language model.",
	}
	for _, s := range bad {
		if IsGoodResponse(s) {
			t.Errorf("IsGoodResponse(%q) = true", s)
		}
	}
}
