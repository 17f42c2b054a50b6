// Package controller implements the paginated search-with-filters-and-
// favorites controller shared by the games, movies and anime surfaces.
//
// The controller is a small state machine (Idle -> Loading -> Ready/Failed,
// re-entrant) over one gateway client. Every issued request carries a
// monotonically increasing sequence number; a response whose sequence is not
// the latest issued is discarded and superseded requests are cancelled, so
// rapid paging or filter changes can never display stale results.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/jmoreiras/mediadex/internal/constants"
	"github.com/jmoreiras/mediadex/internal/models"
	"github.com/jmoreiras/mediadex/internal/services"
	"github.com/jmoreiras/mediadex/pkg/debounce"
	"github.com/jmoreiras/mediadex/pkg/logger"
)

// State is the controller lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Ellipsis is the gap marker in the PageNumbers strip.
const Ellipsis = -1

// SearchState is the controller's observable state. It is replaced wholesale
// on every action; Snapshot returns a copy.
type SearchState struct {
	State   State
	Query   string
	Filters models.FilterSet
	Page    int
	Total   int
	HasMore bool
	Items   []models.MediaItem
	Err     error
}

// FavoritesStore is the slice of the favorites adapter the controller needs.
type FavoritesStore interface {
	Get(ctx context.Context, userID string) ([]models.FavoriteEntry, error)
	Set(ctx context.Context, userID string, item models.MediaItem, present bool) error
	Subscribe(userID string, fn func(entries []models.FavoriteEntry)) func()
}

// Controller drives one browsing surface. It persists for the surface's
// lifetime; Close releases the favorites subscription.
type Controller struct {
	gateway   services.Gateway
	favorites FavoritesStore
	userID    string
	logger    logger.Logger
	debouncer *debounce.Debouncer

	mu          sync.Mutex
	st          SearchState
	seq         uint64
	cancel      context.CancelFunc
	favIDs      map[string]bool
	favEntries  []models.FavoriteEntry
	unsubscribe func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the debounce clock, used by tests.
func WithClock(clock debounce.Clock) Option {
	return func(c *Controller) {
		c.debouncer = debounce.New(constants.DebounceQuietMs*time.Millisecond, clock)
	}
}

// WithLogger replaces the default logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Controller) {
		c.logger = log
	}
}

// New creates a controller for one gateway. The favorites store may be nil
// for surfaces without a signed-in user; membership marking is then off.
func New(gateway services.Gateway, favStore FavoritesStore, userID string, opts ...Option) *Controller {
	c := &Controller{
		gateway:   gateway,
		favorites: favStore,
		userID:    userID,
		logger:    logger.New(),
		debouncer: debounce.New(constants.DebounceQuietMs*time.Millisecond, nil),
		st:        SearchState{State: StateIdle, Page: 1},
		favIDs:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}

	if favStore != nil && userID != "" {
		c.unsubscribe = favStore.Subscribe(userID, c.onFavoritesChanged)
		if entries, err := favStore.Get(context.Background(), userID); err == nil {
			c.onFavoritesChanged(entries)
		}
	}

	return c
}

// Close releases the favorites subscription and drops any pending debounced
// query. The controller keeps no other resources.
func (c *Controller) Close() {
	c.debouncer.Cancel()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state. Items and favorite marks
// are safe to read without further locking.
func (c *Controller) Snapshot() SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.st
	st.Items = append([]models.MediaItem(nil), c.st.Items...)
	return st
}

// SubmitQuery starts a new search: page resets to 1, prior results are
// cleared, and one request is issued with the current filter set.
// The returned channel closes when the request settles.
func (c *Controller) SubmitQuery(ctx context.Context, text string) <-chan struct{} {
	c.debouncer.Cancel()

	c.mu.Lock()
	c.st.Query = text
	c.st.Page = 1
	c.st.Items = nil
	c.st.Total = 0
	c.st.Err = nil
	return c.issueLocked(ctx)
}

// TypeQuery feeds one keystroke's worth of query text. Requests are
// coalesced with a quiet period so typing "a", "ab", "abc" issues exactly
// one search, for "abc".
func (c *Controller) TypeQuery(ctx context.Context, text string) {
	c.debouncer.Call(func() {
		c.SubmitQuery(ctx, text)
	})
}

// Search sets query text and filter set together and reloads from page 1,
// issuing a single request.
func (c *Controller) Search(ctx context.Context, text string, filters models.FilterSet) <-chan struct{} {
	c.debouncer.Cancel()

	c.mu.Lock()
	c.st.Query = text
	c.st.Filters = filters
	c.st.Page = 1
	c.st.Items = nil
	c.st.Total = 0
	c.st.Err = nil
	return c.issueLocked(ctx)
}

// ApplyFilters replaces the filter set atomically and reloads from page 1.
func (c *Controller) ApplyFilters(ctx context.Context, filters models.FilterSet) <-chan struct{} {
	c.mu.Lock()
	c.st.Filters = filters
	c.st.Page = 1
	c.st.Items = nil
	c.st.Total = 0
	c.st.Err = nil
	return c.issueLocked(ctx)
}

// GoToPage loads page n keeping query and filters. Out-of-range pages are
// no-ops; a request in flight for a different page is superseded (its
// response will be discarded and its context cancelled).
func (c *Controller) GoToPage(ctx context.Context, n int) <-chan struct{} {
	c.mu.Lock()

	if n < 1 || n > c.totalPagesLocked() {
		c.mu.Unlock()
		return closedChan()
	}
	if c.st.State == StateLoading && c.st.Page == n {
		c.mu.Unlock()
		return closedChan()
	}

	c.st.Page = n
	c.st.Err = nil
	return c.issueLocked(ctx)
}

// Refresh re-issues the current query/filters/page.
func (c *Controller) Refresh(ctx context.Context) <-chan struct{} {
	c.mu.Lock()
	return c.issueLocked(ctx)
}

// issueLocked starts one gateway request for the current state. Called with
// c.mu held; releases it. The previous in-flight request, if any, is
// cancelled and its response discarded by the sequence check.
func (c *Controller) issueLocked(ctx context.Context) <-chan struct{} {
	c.seq++
	seq := c.seq

	if c.cancel != nil {
		c.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.st.State = StateLoading
	query, filters, page := c.st.Query, c.st.Filters, c.st.Page
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)

		result, err := c.gateway.Search(reqCtx, query, page, filters)

		c.mu.Lock()
		defer c.mu.Unlock()

		if seq != c.seq {
			// A newer request was issued while this one was in flight.
			c.logger.Debugf("[Controller] discarding stale response for %s page %d", c.gateway.Name(), page)
			return
		}
		c.cancel = nil

		if err != nil {
			// Transient failure: keep whatever was on screen.
			c.st.State = StateFailed
			c.st.Err = err
			c.logger.Warnf("[Controller] %s search failed: %v", c.gateway.Name(), err)
			return
		}

		items := result.Items
		if len(items) > c.gateway.PageSize() {
			items = items[:c.gateway.PageSize()]
		}

		c.st.State = StateReady
		c.st.Items = items
		c.st.Total = result.Total
		c.st.HasMore = result.HasMore
		c.st.Err = nil
	}()

	return done
}

func (c *Controller) totalPagesLocked() int {
	if c.st.Total <= 0 {
		// Before the first page arrives the bound is unknown; only allow
		// page 1 plus a blind step forward when the provider said HasMore.
		if c.st.HasMore {
			return c.st.Page + 1
		}
		return 1
	}
	pageSize := c.gateway.PageSize()
	return (c.st.Total + pageSize - 1) / pageSize
}

// TotalPages returns ceil(total/pageSize) for the last reported total.
func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPagesLocked()
}

// PageNumbers returns the page-button strip for the current state: first
// page, last page, up to one neighbor on each side of the current page, and
// Ellipsis markers where the gap exceeds one. Result sets that fit within
// the button budget list every page.
func (c *Controller) PageNumbers() []int {
	c.mu.Lock()
	page := c.st.Page
	totalPages := c.totalPagesLocked()
	c.mu.Unlock()

	return pageNumbers(page, totalPages)
}

func pageNumbers(page, totalPages int) []int {
	if totalPages <= constants.MaxPageButtons {
		pages := make([]int, 0, totalPages)
		for i := 1; i <= totalPages; i++ {
			pages = append(pages, i)
		}
		return pages
	}

	// Window of up to one page each side of the current page, widened at
	// the edges so the strip always carries three middle pages.
	lo := page - 1
	hi := page + 1
	if page <= 2 {
		lo, hi = 2, 3
	}
	if page >= totalPages-1 {
		lo, hi = totalPages-2, totalPages-1
	}
	if lo < 2 {
		lo = 2
	}
	if hi > totalPages-1 {
		hi = totalPages - 1
	}

	pages := []int{1}
	if lo > 2 {
		pages = append(pages, Ellipsis)
	}
	for i := lo; i <= hi; i++ {
		pages = append(pages, i)
	}
	if hi < totalPages-1 {
		pages = append(pages, Ellipsis)
	}
	pages = append(pages, totalPages)

	return pages
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
