package docsync

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"naratmalsami/internal/blocks"
	"naratmalsami/internal/idle"
	"naratmalsami/internal/middleware"
	"naratmalsami/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

/*
LEARNING: IDLE-TRIGGERED SYNC

Pushing content to the store on every keystroke is wasteful and can persist
half-typed states. Instead each edit restarts an idle timer and the content
is flushed once the editor has been quiet for the idle duration:

  edit ─► restart timer ─► ...quiet... ─► fire ─► tag blocks ─► extract ─► store.Update

State machine:
  Idle          ──edit──►  PendingFlush
  PendingFlush  ──edit──►  PendingFlush   (timer restarted)
  PendingFlush  ──fire──►  Idle           (flush runs)
  any           ──Close─►  closed         (timer stopped, no more flushes)

All transitions happen under one mutex, so edits, fires and teardown are
processed one at a time like events on a single loop.
*/

// DefaultIdleDuration is the quiet period before a flush.
const DefaultIdleDuration = 3000 * time.Millisecond

// State is the controller's flush state
type State int

const (
	StateIdle State = iota
	StatePendingFlush
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingFlush:
		return "pending_flush"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a Controller. Zero values use defaults.
type Options struct {
	// IdleDuration is the inactivity window before a flush (default 3s)
	IdleDuration time.Duration

	// DocumentID is used for logging and tracing only
	DocumentID string

	Clock idle.Clock

	// OnFlush is called with the content after a successful store update.
	// Callbacks run while the controller is locked and must not call back into it.
	OnFlush func(content string)

	// OnError is called once when a store update fails
	OnError func(err error)
}

// Stats counts flush outcomes over the controller's lifetime
type Stats struct {
	Flushes  int
	Skipped  int
	Failures int
}

// Controller debounces editor activity and flushes content to a store.
type Controller struct {
	mu     sync.Mutex
	state  State
	closed bool
	stats  Stats

	timer     *idle.Timer
	duration  time.Duration
	root      blocks.Root
	tagger    BlockTagger
	extractor ContentExtractor
	store     DocumentStore
	opts      Options
}

// NewController creates a controller in the Idle state. The controller owns
// its idle timer; the store is shared and only used through Init and Update.
func NewController(root blocks.Root, tagger BlockTagger, extractor ContentExtractor, store DocumentStore, opts Options) *Controller {
	if opts.IdleDuration <= 0 {
		opts.IdleDuration = DefaultIdleDuration
	}
	if tagger == nil {
		tagger = blocks.NewTagger(nil)
	}

	c := &Controller{
		state:     StateIdle,
		duration:  opts.IdleDuration,
		root:      root,
		tagger:    tagger,
		extractor: extractor,
		store:     store,
		opts:      opts,
	}
	c.timer = idle.NewTimer(opts.Clock, c.onIdle)
	return c
}

// Bootstrap loads the document and initialises the store with its content.
// On failure the store is left untouched and the error wraps ErrLoadFailure.
func (c *Controller) Bootstrap(ctx context.Context, loader DocumentLoader, id string) (*models.Document, error) {
	ctx, span := middleware.StartSpan(ctx, "DocSync.Bootstrap",
		attribute.String("document.id", id),
	)
	defer span.End()

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	doc, err := loader.Fetch(ctx, id)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrLoadFailure, id, err)
		middleware.AddSpanError(ctx, err)
		return nil, err
	}
	if doc == nil {
		err = fmt.Errorf("%w: %s: empty response", ErrLoadFailure, id)
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	if err := c.store.Init(ctx, doc.Content); err != nil {
		err = fmt.Errorf("failed to init document store: %w", err)
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	return doc, nil
}

// Edit records editor activity and (re)starts the idle window.
func (c *Controller) Edit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.state = StatePendingFlush
	c.timer.Start(c.duration)
}

// Close stops the idle timer and discards any pending flush. No flush runs
// after Close returns. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timer.Stop()
	c.closed = true
	c.state = StateIdle
}

// State returns the current flush state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns flush counters
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// onIdle runs when the idle timer fires
func (c *Controller) onIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// An edit restarted the timer after it fired; that edit owns the next flush
	if c.closed || c.timer.Running() {
		return
	}

	c.flushLocked()
	c.state = StateIdle
}

func (c *Controller) flushLocked() {
	ctx, span := middleware.StartSpan(context.Background(), "DocSync.Flush",
		attribute.String("document.id", c.opts.DocumentID),
	)
	defer span.End()

	// Ids must be in place before serialization
	tagged := c.tagger.Tag(c.root)

	if c.extractor == nil {
		c.stats.Skipped++
		return
	}
	content, ok := c.extractor.SerializedContent()
	if !ok {
		c.stats.Skipped++
		middleware.AddSpanEvent(ctx, "flush.skipped")
		return
	}

	span.SetAttributes(
		attribute.Int("flush.blocks_tagged", tagged),
		attribute.Int("flush.content_size", len(content)),
	)

	if err := c.store.Update(ctx, content); err != nil {
		c.stats.Failures++
		err = fmt.Errorf("failed to update document %s: %w", c.opts.DocumentID, err)
		log.Printf("⚠️  %v", err)
		middleware.AddSpanError(ctx, err)
		if c.opts.OnError != nil {
			c.opts.OnError(err)
		}
		return
	}

	c.stats.Flushes++
	if c.opts.OnFlush != nil {
		c.opts.OnFlush(content)
	}
}
