package media

import (
	"cmp"
	"math"
	"regexp"
	"slices"

	"github.com/samber/lo"
)

// DefaultPlaceholderPattern matches the blank stream some players load before
// the real one starts.
const DefaultPlaceholderPattern = `(?i)blank\.mp4`

var defaultPlaceholder = regexp.MustCompile(DefaultPlaceholderPattern)

// Candidate is an Element with its derived seek window and delay.
type Candidate struct {
	Element
	IsPlaceholder     bool
	SeekWindowSeconds float64
	// CurrentDelaySeconds is only meaningful when Seekable is true.
	CurrentDelaySeconds float64
}

// Delay returns the distance from the live edge and whether it is defined.
func (c Candidate) Delay() (float64, bool) {
	return c.CurrentDelaySeconds, c.Seekable
}

// Prober turns raw element readings into ranked candidates.
type Prober struct {
	placeholder *regexp.Regexp
}

// NewProber builds a Prober. An empty pattern uses DefaultPlaceholderPattern.
func NewProber(pattern string) (*Prober, error) {
	if pattern == "" {
		return &Prober{placeholder: defaultPlaceholder}, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Prober{placeholder: re}, nil
}

// Candidate derives the candidate for one element.
func (p *Prober) Candidate(el Element) Candidate {
	re := defaultPlaceholder
	if p != nil && p.placeholder != nil {
		re = p.placeholder
	}
	c := Candidate{
		Element:       el,
		IsPlaceholder: re.MatchString(el.Source),
	}
	if !el.Seekable {
		c.SeekStart, c.SeekEnd = 0, 0
		return c
	}
	c.SeekWindowSeconds = math.Max(0, el.SeekEnd-el.SeekStart)
	c.CurrentDelaySeconds = math.Max(0, el.SeekEnd-finite(el.CurrentTime))
	return c
}

// Candidates derives candidates for every element, preserving order.
func (p *Prober) Candidates(els []Element) []Candidate {
	return lo.Map(els, func(el Element, _ int) Candidate {
		return p.Candidate(el)
	})
}

// Best picks the best element of a frame.
func (p *Prober) Best(frame Frame) (Candidate, bool) {
	return Best(p.Candidates(frame.Elements))
}

// Best returns the head of the ranked candidate list.
func Best(cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	ranked := Rank(cands)
	return ranked[0], true
}

// Rank returns a sorted copy of cands, best first.
func Rank(cands []Candidate) []Candidate {
	ranked := slices.Clone(cands)
	slices.SortStableFunc(ranked, Compare)
	return ranked
}

// Compare orders candidates: real streams before placeholders, playing before
// paused, wider seek window first, then discovery order.
func Compare(a, b Candidate) int {
	if a.IsPlaceholder != b.IsPlaceholder {
		if a.IsPlaceholder {
			return 1
		}
		return -1
	}
	if a.Paused != b.Paused {
		if a.Paused {
			return 1
		}
		return -1
	}
	if c := cmp.Compare(b.SeekWindowSeconds, a.SeekWindowSeconds); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
