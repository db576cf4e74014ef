package client

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Suggestion is one customer-search hit. Identity resolution itself is an
// external service; the searcher only manages debounce and cancellation.
type Suggestion struct {
	CustomerID string
	Name       string
}

type SearchFunc func(ctx context.Context, query string) ([]Suggestion, error)

// Searcher debounces search-as-you-type input and cancels the in-flight
// request when a newer keystroke arrives, so stale results can never land
// on top of fresh ones.
type Searcher struct {
	search   SearchFunc
	apply    func(query string, results []Suggestion)
	debounce time.Duration
	minChars int

	mu     sync.Mutex
	gen    int // bumped on every Input; stale fires check it before touching anything
	timer  *time.Timer
	cancel context.CancelFunc
}

func NewSearcher(search SearchFunc, apply func(string, []Suggestion), debounce time.Duration, minChars int) *Searcher {
	return &Searcher{
		search:   search,
		apply:    apply,
		debounce: debounce,
		minChars: minChars,
	}
}

// Input feeds one keystroke's worth of query text. Each call supersedes the
// previous one: pending debounce timers are reset and in-flight requests
// aborted.
func (s *Searcher) Input(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if len(query) < s.minChars {
		s.apply(query, nil)
		return
	}

	gen := s.gen
	s.timer = time.AfterFunc(s.debounce, func() {
		s.fire(gen, query)
	})
}

// fire runs one debounced request. The generation check closes the window
// between the timer firing and this goroutine taking the lock: an Input that
// landed in that gap has already bumped the generation, and a fire carrying
// the old one must neither install its cancel nor apply its results.
func (s *Searcher) fire(gen int, query string) {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		cancel()
		return
	}
	s.cancel = cancel
	s.mu.Unlock()

	results, err := s.search(ctx, query)

	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()

	if err != nil {
		// A canceled request was superseded; anything else is transient
		// and the next keystroke retries.
		if !errors.Is(err, context.Canceled) && !stale {
			s.apply(query, nil)
		}
		return
	}
	if stale || ctx.Err() != nil {
		return
	}
	s.apply(query, results)
}
