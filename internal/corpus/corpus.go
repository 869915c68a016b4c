package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"sync"
)

// ErrCorpusUnavailable is returned when the word-frequency file cannot be
// loaded or contains no usable words.
var ErrCorpusUnavailable = errors.New("word corpus unavailable")

// entry mirrors one record of the frequency file: [{"label": "le", "freq": 1234}, ...]
type entry struct {
	Label string  `json:"label"`
	Freq  float64 `json:"freq"`
}

// Source is a lazily loaded word-frequency corpus. The file is read once on
// first use and cached for the life of the process.
type Source struct {
	path string

	once  sync.Once
	words []string
	err   error
}

// NewSource creates a corpus source backed by a frequency JSON file
func NewSource(path string) *Source {
	return &Source{path: path}
}

// NewStaticSource creates a corpus source from a fixed word list
func NewStaticSource(words []string) *Source {
	s := &Source{}
	s.once.Do(func() {})
	s.words = words
	return s
}

// Words returns the corpus word list, loading it on first call
func (s *Source) Words() ([]string, error) {
	s.once.Do(s.load)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.words) == 0 {
		return nil, fmt.Errorf("%w: corpus is empty", ErrCorpusUnavailable)
	}
	return s.words, nil
}

func (s *Source) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.err = fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
		return
	}

	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.err = fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
		return
	}

	words := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Label != "" {
			words = append(words, e.Label)
		}
	}
	s.words = words
}

// Generate produces a reproducible sequence of count words drawn from the
// corpus. The same (corpus, seed, count) always yields the same sequence, so
// a stored seed is enough to re-derive a session's words for auditing.
func (s *Source) Generate(count int, seed string) ([]string, error) {
	words, err := s.Words()
	if err != nil {
		return nil, err
	}

	seedVal, err := strconv.ParseInt(seed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid seed %q: %w", seed, err)
	}

	rng := rand.New(rand.NewSource(seedVal))
	sequence := make([]string, count)
	for i := range sequence {
		sequence[i] = words[rng.Intn(len(words))]
	}
	return sequence, nil
}

// NewSeed returns a fresh 6-digit decimal seed
func NewSeed() string {
	return strconv.Itoa(100000 + rand.Intn(900000))
}

// SequenceLength draws a word count in [min, max]. Equal bounds give a fixed
// round length.
func SequenceLength(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min+1)
}
