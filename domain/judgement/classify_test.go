package judgement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   Judgement
		wantOK bool
	}{
		{"single code", "YTA no questions asked", YTA, true},
		{"code at end", "Clearly a case of ESH", ESH, true},
		{"two codes", "NTA but it seems like YTA", 0, false},
		{"repeated same code", "NTA. Seriously, NTA.", NTA, true},
		{"no code", "What a story, I can't believe it", 0, false},
		{"embedded in word", "NTAs everywhere in this thread", NTA, true},
		{"case sensitive", "nta, obviously", 0, false},
		{"bot marker", "I am a bot, and this action was performed automatically. NTA", 0, false},
		{"automod marker", "AUTOMOD YTA", 0, false},
		{"empty", "", 0, false},
		{"all four", "YTA NTA NAH ESH", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.body)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClassifyEveryMember(t *testing.T) {
	for _, j := range All() {
		got, ok := Classify("I'd say " + j.String() + " here")
		assert.True(t, ok, j.String())
		assert.Equal(t, j, got)
	}
}

func TestClassifyAnyPairIsAmbiguous(t *testing.T) {
	for _, a := range All() {
		for _, b := range All() {
			if a == b {
				continue
			}
			_, ok := Classify(a.String() + " or maybe " + b.String())
			assert.False(t, ok, "%s/%s", a, b)
		}
	}
}

func TestIsAutomated(t *testing.T) {
	assert.True(t, IsAutomated("Hello, I am a bot"))
	assert.True(t, IsAutomated("[AUTOMOD] post locked"))
	assert.False(t, IsAutomated("i am a bot"))
	assert.False(t, IsAutomated("NTA"))
}
