// Package session runs one interactive story: it keeps the transcript, the
// working memory and the style fingerprint in step with narrator replies.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rcliao/storyteller/internal/llm"
	"github.com/rcliao/storyteller/internal/locate"
	"github.com/rcliao/storyteller/internal/memory"
	"github.com/rcliao/storyteller/internal/model"
	"github.com/rcliao/storyteller/internal/prompt"
	"github.com/rcliao/storyteller/internal/roles"
	"github.com/rcliao/storyteller/internal/store"
	"github.com/rcliao/storyteller/internal/style"
)

// Narrator produces replies and illustrations. *llm.Client implements it.
type Narrator interface {
	Stream(ctx context.Context, req llm.Request, onChunk func(string) error) (llm.Response, error)
	Illustrate(ctx context.Context, prompt string, n int) ([]string, error)
}

// Options tunes a Session.
type Options struct {
	HistoryTurns   int           // prior messages sent with each turn
	MaxTokensShort int           // completion cap in short mode
	MaxTokensLong  int           // completion cap in long mode and for the opening
	StyleEvery     int           // refresh the fingerprint every N replies; 0 disables
	MemoryMaxAge   time.Duration // memory entries older than this are evicted
}

// DefaultOptions returns the stock session settings.
func DefaultOptions() Options {
	return Options{
		HistoryTurns:   10,
		MaxTokensShort: 1500,
		MaxTokensLong:  7500,
		StyleEvery:     5,
		MemoryMaxAge:   memory.DefaultMaxAge,
	}
}

// Session is one game. Methods are safe for concurrent use; at most one
// generation is in flight at a time.
type Session struct {
	id       string
	store    store.Store
	builder  *prompt.Builder
	narrator Narrator
	log      *zap.Logger
	opts     Options

	mu      sync.Mutex
	memory  *memory.Manager
	story   []string // narrator replies in transcript order
	replies int
	cancel  context.CancelFunc
	gen     uint64
}

// New creates a session with a fresh ID.
func New(st store.Store, b *prompt.Builder, n Narrator, log *zap.Logger, opts Options) *Session {
	return newSession(uuid.NewString(), st, b, n, log, opts)
}

func newSession(id string, st store.Store, b *prompt.Builder, n Narrator, log *zap.Logger, opts Options) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		id:       id,
		store:    st,
		builder:  b,
		narrator: n,
		log:      log.With(zap.String("session", id)),
		opts:     opts,
		memory:   memory.New(),
	}
}

// Resume reopens a stored session, rebuilding the story and working memory
// from its transcript.
func Resume(ctx context.Context, st store.Store, b *prompt.Builder, n Narrator, log *zap.Logger, opts Options, id string) (*Session, error) {
	messages, err := st.List(ctx, store.ListParams{Session: id})
	if err != nil {
		return nil, fmt.Errorf("list transcript: %w", err)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: session %q", model.ErrNotFound, id)
	}

	s := newSession(id, st, b, n, log, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuild(messages)
	return s, nil
}

// rebuild replaces story, memory and style with what messages imply.
// Caller holds mu.
func (s *Session) rebuild(messages []model.Message) {
	s.story = nil
	s.replies = 0
	s.memory = memory.New()

	every := s.opts.StyleEvery
	s.opts.StyleEvery = 0
	for i := range messages {
		if messages[i].Role == model.RoleAssistant {
			s.remember(&messages[i])
		}
	}
	s.opts.StyleEvery = every
	if every > 0 {
		s.builder.SetStyle(style.Analyze(s.storyText()), "")
	}
}

// ID returns the session identifier used in the transcript store.
func (s *Session) ID() string { return s.id }

// Start generates the opening narration. It fails once the session has a
// transcript.
func (s *Session) Start(ctx context.Context, customOpening string, onChunk func(string) error) (*model.Message, error) {
	existing, err := s.store.List(ctx, store.ListParams{Session: s.id, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("list transcript: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: session already started", model.ErrInvalidInput)
	}

	req := llm.Request{
		System:    s.builder.Opening(customOpening),
		MaxTokens: s.opts.MaxTokensLong,
	}
	return s.generate(ctx, req, onChunk)
}

// SendParams is one player turn.
type SendParams struct {
	Input string
	Quote string // optional passage of the story to continue from
}

// Send runs one player turn. Any generation still in flight is cancelled
// first and its output discarded.
func (s *Session) Send(ctx context.Context, p SendParams, onChunk func(string) error) (*model.Message, error) {
	input := strings.TrimSpace(p.Input)
	if input == "" {
		return nil, fmt.Errorf("%w: input is empty", model.ErrInvalidInput)
	}
	s.Abort()

	s.mu.Lock()
	in := prompt.TurnInput{Command: input, Memory: s.memory.Summary()}
	if quote := strings.TrimSpace(p.Quote); quote != "" {
		w, err := locate.Locate(s.storyText(), quote)
		switch {
		case err == nil:
			in.Located = w
		case errors.Is(err, model.ErrNotFound):
			s.log.Info("quoted passage not found", zap.Int("quote_runes", len([]rune(quote))))
		default:
			s.mu.Unlock()
			return nil, err
		}
	}
	system, err := s.builder.Turn(in)
	long := s.builder.Length() == model.LengthLong
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	history, err := s.store.List(ctx, store.ListParams{Session: s.id, Limit: s.opts.HistoryTurns})
	if err != nil {
		return nil, fmt.Errorf("list transcript: %w", err)
	}
	if s.opts.HistoryTurns <= 0 {
		history = nil
	}

	if _, err := s.store.Append(ctx, store.AppendParams{Session: s.id, Role: model.RoleUser, Content: input}); err != nil {
		return nil, fmt.Errorf("append input: %w", err)
	}

	maxTokens := s.opts.MaxTokensShort
	if long {
		maxTokens = s.opts.MaxTokensLong
	}
	return s.generate(ctx, llm.Request{
		System:    system,
		History:   history,
		Input:     input,
		MaxTokens: maxTokens,
	}, onChunk)
}

// generate streams one reply and records it unless it was superseded.
func (s *Session) generate(ctx context.Context, req llm.Request, onChunk func(string) error) (*model.Message, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.mu.Unlock()
	defer s.finish(gen, cancel)

	resp, err := s.narrator.Stream(ctx, req, onChunk)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, model.ErrCancelled) {
			err = fmt.Errorf("%w: %v", model.ErrCancelled, err)
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || ctx.Err() != nil {
		return nil, fmt.Errorf("%w: superseded", model.ErrCancelled)
	}

	msg, err := s.store.Append(context.WithoutCancel(ctx), store.AppendParams{
		Session: s.id,
		Role:    model.RoleAssistant,
		Content: resp.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("append reply: %w", err)
	}
	s.remember(msg)

	s.log.Info("turn finished",
		zap.Int("seq", msg.Seq),
		zap.Int("reply_runes", len([]rune(msg.Content))),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return msg, nil
}

func (s *Session) finish(gen uint64, cancel context.CancelFunc) {
	cancel()
	s.mu.Lock()
	if s.gen == gen {
		s.cancel = nil
	}
	s.mu.Unlock()
}

// remember folds a narrator reply into story, memory and style. Caller holds mu.
func (s *Session) remember(msg *model.Message) {
	s.story = append(s.story, msg.Content)
	s.replies++

	s.memory.Observe(msg.Content, msg.Seq)
	s.memory.Cleanup(s.opts.MemoryMaxAge)

	if s.opts.StyleEvery > 0 && s.replies%s.opts.StyleEvery == 0 {
		story := s.storyText()
		if fp := style.Analyze(story); fp != nil {
			s.builder.SetStyle(fp, "")
			s.log.Debug("style fingerprint refreshed", zap.Int("avg_sentence_length", fp.AvgSentenceLength))
		}
	}
}

// SetLength switches the reply length mode for later turns.
func (s *Session) SetLength(mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.SetLength(mode)
}

// Abort cancels the in-flight generation, if any, and reports whether there
// was one.
func (s *Session) Abort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	s.gen++
	return true
}

// Rewind drops every message after seq and rebuilds memory and the style
// fingerprint from what remains.
func (s *Session) Rewind(ctx context.Context, seq int) (int64, error) {
	if seq < 0 {
		return 0, fmt.Errorf("%w: seq %d", model.ErrInvalidInput, seq)
	}
	s.Abort()

	removed, err := s.store.TruncateAfter(ctx, s.id, seq)
	if err != nil {
		return 0, fmt.Errorf("truncate transcript: %w", err)
	}
	messages, err := s.store.List(ctx, store.ListParams{Session: s.id})
	if err != nil {
		return removed, fmt.Errorf("list transcript: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuild(messages)
	return removed, nil
}

// Transcript returns every stored message of the session.
func (s *Session) Transcript(ctx context.Context) ([]model.Message, error) {
	return s.store.List(ctx, store.ListParams{Session: s.id})
}

// Story returns the narration so far, replies separated by a blank line.
func (s *Session) Story() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storyText()
}

func (s *Session) storyText() string {
	return strings.Join(s.story, "\n\n")
}

// Locate finds search in the story.
func (s *Session) Locate(search string) (*locate.Window, error) {
	return locate.Locate(s.Story(), search)
}

// Roles lists candidate character names from the story.
func (s *Session) Roles() []string {
	return roles.Extract(s.Story())
}

// Style fingerprints the story. It is nil while the story is too short.
func (s *Session) Style() *style.Fingerprint {
	return style.Analyze(s.Story())
}

// Memory returns the rendered working memory.
func (s *Session) Memory() memory.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Summary()
}

// Illustrate asks the narrator for images of prompt.
func (s *Session) Illustrate(ctx context.Context, prompt string, n int) ([]string, error) {
	return s.narrator.Illustrate(ctx, prompt, n)
}
