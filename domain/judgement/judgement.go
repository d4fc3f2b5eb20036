// Package judgement defines the closed set of verdicts a reader can give a post
// and the text extractor that recognises them.
package judgement

import (
	"fmt"
)

// Judgement is one of the four verdict codes. The numeric value is the
// member's fixed position and must not be reordered.
type Judgement uint8

const (
	YTA Judgement = iota // poster is at fault
	NTA                  // poster is not at fault
	NAH                  // no one is at fault
	ESH                  // everyone shares the fault
)

// Count is the number of members; every label vector has this length.
const Count = 4

var codes = [Count]string{"YTA", "NTA", "NAH", "ESH"}

var all = [Count]Judgement{YTA, NTA, NAH, ESH}

// All returns the members in their fixed order.
func All() []Judgement {
	out := make([]Judgement, Count)
	copy(out, all[:])
	return out
}

// Index is the member's position in every vector encoding.
func (j Judgement) Index() int {
	return int(j)
}

// Valid reports whether j is one of the four members.
func (j Judgement) Valid() bool {
	return int(j) < Count
}

func (j Judgement) String() string {
	if !j.Valid() {
		return fmt.Sprintf("Judgement(%d)", uint8(j))
	}
	return codes[j]
}

// Parse maps a short code to its member.
func Parse(code string) (Judgement, error) {
	for i, c := range codes {
		if c == code {
			return Judgement(i), nil
		}
	}
	return 0, fmt.Errorf("unknown judgement code %q", code)
}

// MarshalText encodes the member as its short code.
func (j Judgement) MarshalText() ([]byte, error) {
	if !j.Valid() {
		return nil, fmt.Errorf("invalid judgement %d", uint8(j))
	}
	return []byte(codes[j]), nil
}

// UnmarshalText decodes a short code.
func (j *Judgement) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}
