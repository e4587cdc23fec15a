package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	DefaultDelay     = 500 * time.Millisecond
	DefaultMinLength = 2
)

// Searcher issues the filtered list request. *apiclient.Client satisfies it.
type Searcher interface {
	Request(ctx context.Context, entity, method string, body any, queryOrID any) (json.RawMessage, error)
}

// Options configures a RemoteSelect.
type Options struct {
	Entity string
	// Delay is the quiet period before a search is sent.
	Delay time.Duration
	// MinLength is the minimum number of characters, after Clean, needed
	// to search.
	MinLength int
	// Clean normalizes the typed text before searching.
	Clean func(string) string
	// OnResults receives every completed search. A nil slice with a nil
	// error means the candidate list was emptied.
	OnResults func(candidates []Candidate, err error)
	// OnSelect receives the chosen identifier, or "" when the selection is
	// dropped.
	OnSelect func(id string)
	Logger   zerolog.Logger
}

// RemoteSelect turns successive input values into at most one search per
// quiet period and resolves a chosen candidate to its identifier.
type RemoteSelect struct {
	ctx       context.Context
	searcher  Searcher
	opts      Options
	debouncer *Debouncer

	mu         sync.Mutex
	text       string
	selected   *Candidate
	candidates []Candidate
}

// NewRemoteSelect builds a selector whose searches run with ctx.
func NewRemoteSelect(ctx context.Context, searcher Searcher, opts Options) *RemoteSelect {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	if opts.Clean == nil {
		opts.Clean = func(s string) string { return s }
	}
	return &RemoteSelect{
		ctx:       ctx,
		searcher:  searcher,
		opts:      opts,
		debouncer: NewDebouncer(opts.Delay),
	}
}

// Input records the current field text. Editing drops any selection.
func (s *RemoteSelect) Input(text string) {
	s.mu.Lock()
	s.text = text
	hadSelection := s.selected != nil
	s.selected = nil
	s.mu.Unlock()

	if hadSelection {
		s.notifySelect("")
	}

	if text == "" {
		s.debouncer.Cancel()
		s.setCandidates(nil, nil)
		return
	}

	s.debouncer.Trigger(func() { s.search(text) })
}

// Select resolves c to its identifier and hands it to OnSelect.
func (s *RemoteSelect) Select(c Candidate) string {
	s.debouncer.Cancel()

	s.mu.Lock()
	s.selected = &c
	s.text = c.Name
	s.candidates = nil
	s.mu.Unlock()

	s.notifySelect(c.ID)
	return c.ID
}

// Clear empties the field, the candidates and the selection.
func (s *RemoteSelect) Clear() {
	s.debouncer.Cancel()

	s.mu.Lock()
	s.text = ""
	s.selected = nil
	s.candidates = nil
	s.mu.Unlock()

	s.notifySelect("")
}

// Flush sends the pending search now and waits for it, so the last input
// is never lost when the caller stops typing.
func (s *RemoteSelect) Flush() {
	s.debouncer.Flush()
}

// Close drops a pending search.
func (s *RemoteSelect) Close() {
	s.debouncer.Cancel()
}

func (s *RemoteSelect) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

func (s *RemoteSelect) Candidates() []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Candidate(nil), s.candidates...)
}

func (s *RemoteSelect) Selected() (Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return Candidate{}, false
	}
	return *s.selected, true
}

func (s *RemoteSelect) search(text string) {
	term := s.opts.Clean(text)
	if utf8.RuneCountInString(term) < s.opts.MinLength {
		return
	}

	s.mu.Lock()
	selected := s.selected != nil
	s.mu.Unlock()
	if selected {
		return
	}

	s.opts.Logger.Debug().Str("entity", s.opts.Entity).Str("term", term).Msg("Searching")

	raw, err := s.searcher.Request(s.ctx, s.opts.Entity, http.MethodGet, nil, "?search="+url.QueryEscape(term))
	if err != nil {
		s.opts.Logger.Error().Err(err).Str("entity", s.opts.Entity).Msg("Search failed")
		s.setCandidates(nil, err)
		return
	}

	candidates, err := ParseCandidates(raw)
	s.setCandidates(candidates, err)
}

func (s *RemoteSelect) setCandidates(c []Candidate, err error) {
	s.mu.Lock()
	s.candidates = c
	s.mu.Unlock()

	if s.opts.OnResults != nil {
		s.opts.OnResults(c, err)
	}
}

func (s *RemoteSelect) notifySelect(id string) {
	if s.opts.OnSelect != nil {
		s.opts.OnSelect(id)
	}
}

// CleanPersonTerm trims whitespace and trailing slashes, as the person
// lookup does before searching.
func CleanPersonTerm(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}
