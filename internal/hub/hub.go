// Package hub wires the presentation state machine together: three
// subscribable state cells (slides, questions, population), the
// bounded vote queue feeding the window batcher, and the broadcast
// fan-outs that deliver state changes and vote batches to transports.
//
// The hub's intake operations are total: no admin or user command ever
// returns an error to the caller. Failure conditions live inside the
// components that can legitimately hit a limit (queue, fan-out) and
// surface there.
package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/deckpulse/internal/batch"
	"github.com/pscheid92/deckpulse/internal/cell"
	"github.com/pscheid92/deckpulse/internal/domain"
	"github.com/pscheid92/deckpulse/internal/fanout"
	"github.com/pscheid92/deckpulse/internal/metrics"
	"github.com/pscheid92/deckpulse/internal/queue"
)

// Config holds the sizing knobs of the hub pipeline.
type Config struct {
	// QueueCapacity bounds the number of in-flight votes; offers block
	// beyond it.
	QueueCapacity int
	// BatchSize closes a vote batch when it reaches this many votes.
	BatchSize int
	// BatchWindow closes a partial vote batch this long after its
	// first vote arrived.
	BatchWindow time.Duration
	// StreamBuffer is the per-subscriber buffer of all broadcast
	// streams.
	StreamBuffer int
}

// DefaultConfig returns the reference sizing of the pipeline.
func DefaultConfig() Config {
	return Config{
		QueueCapacity: queue.DefaultCapacity,
		BatchSize:     batch.DefaultMaxSize,
		BatchWindow:   batch.DefaultWindow,
		StreamBuffer:  fanout.DefaultBuffer,
	}
}

// Hub is the authoritative state holder. All methods are safe for
// concurrent use by any number of producers and subscribers.
type Hub struct {
	slides     *cell.Cell[domain.SlideState]
	questions  *cell.Cell[domain.QuestionState]
	population *cell.Cell[domain.Population]

	votes    *queue.Bounded[domain.CastVote]
	batcher  *batch.Batcher[domain.CastVote]
	voteFeed *fanout.Broadcaster[[]domain.CastVote]

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a hub and starts its vote pipeline. The clock drives the
// batch window timer.
func New(cfg Config, clock clockwork.Clock) *Hub {
	h := &Hub{
		slides:     cell.New("slides", domain.SlideState{}, cfg.StreamBuffer),
		questions:  cell.New("questions", domain.NewQuestionState(), cfg.StreamBuffer),
		population: cell.New("population", domain.Population(0), cfg.StreamBuffer),
		votes:      queue.New[domain.CastVote]("votes", cfg.QueueCapacity),

		// Vote batches are not safely droppable for counting, so the
		// batch stream terminates subscribers that fall behind instead
		// of dropping batches.
		voteFeed: fanout.New[[]domain.CastVote]("vote_batches", cfg.StreamBuffer, fanout.Terminate),
	}
	h.batcher = batch.New("votes", h.votes.Drain(), cfg.BatchSize, cfg.BatchWindow, clock)

	h.wg.Add(1)
	go h.pumpBatches()
	return h
}

// pumpBatches forwards closed batches into the vote fan-out. Publish
// never blocks, so one slow batch subscriber cannot stall the batcher.
func (h *Hub) pumpBatches() {
	defer h.wg.Done()
	for b := range h.batcher.C() {
		h.voteFeed.Publish(b)
	}
}

// ApplyAdmin routes a presenter command to the owning cell. It never
// fails; commands on exhausted positions saturate inside the model.
func (h *Hub) ApplyAdmin(ctx context.Context, cmd domain.AdminCommand) {
	switch c := cmd.(type) {
	case domain.NextSlide:
		h.slides.Update(domain.SlideState.NextSlide)
		h.countAdmin("next_slide")
	case domain.PrevSlide:
		h.slides.Update(domain.SlideState.PrevSlide)
		h.countAdmin("prev_slide")
	case domain.NextStep:
		h.slides.Update(domain.SlideState.NextStep)
		h.countAdmin("next_step")
	case domain.PrevStep:
		h.slides.Update(domain.SlideState.PrevStep)
		h.countAdmin("prev_step")
	case domain.ToggleQuestion:
		// Unknown IDs are absorbed inside Toggle as a no-op.
		h.questions.Update(func(q domain.QuestionState) domain.QuestionState {
			return q.Toggle(c.ID)
		})
		h.countAdmin("toggle_question")
	default:
		slog.WarnContext(ctx, "Unknown admin command", "command", fmt.Sprintf("%T", cmd))
	}
}

// ApplyUser routes a viewer command. AskQuestion mutates the question
// cell; SendVote feeds the vote pipeline and blocks while the queue is
// full, so a flood of votes backpressures producers instead of losing
// votes. Cancellation of ctx abandons a blocked vote.
func (h *Hub) ApplyUser(ctx context.Context, user domain.UserID, cmd domain.UserCommand) {
	switch c := cmd.(type) {
	case domain.AskQuestion:
		h.questions.Update(func(q domain.QuestionState) domain.QuestionState {
			next, _ := q.Ask(c.Text, c.Slide)
			return next
		})
		metrics.QuestionsAsked.Inc()
	case domain.SendVote:
		vote := domain.CastVote{User: user, Topic: c.Topic, Choice: c.Choice}
		if err := h.votes.Offer(ctx, vote); err != nil {
			slog.WarnContext(ctx, "Vote not accepted", "user", string(user), "error", err)
			return
		}
		metrics.VotesAccepted.Inc()
	default:
		slog.WarnContext(ctx, "Unknown user command", "command", fmt.Sprintf("%T", cmd))
	}
}

// UserJoined counts a viewer connecting.
func (h *Hub) UserJoined() {
	p := h.population.Update(domain.Population.AddOne)
	metrics.PopulationCurrent.Set(float64(p))
}

// UserLeft counts a viewer disconnecting. The population saturates at
// zero, so spurious leave events cannot corrupt the count.
func (h *Hub) UserLeft() {
	p := h.population.Update(domain.Population.RemoveOne)
	metrics.PopulationCurrent.Set(float64(p))
}

// SlideStates streams slide positions, starting with the current one.
func (h *Hub) SlideStates() *fanout.Subscription[domain.SlideState] {
	return h.slides.Subscribe()
}

// Questions streams question states, starting with the current one.
func (h *Hub) Questions() *fanout.Subscription[domain.QuestionState] {
	return h.questions.Subscribe()
}

// Population streams viewer counts, starting with the current one.
func (h *Hub) Population() *fanout.Subscription[domain.Population] {
	return h.population.Subscribe()
}

// VoteBatches streams vote batches closed after the subscription call.
// There is no replay: batches delivered earlier are gone.
func (h *Hub) VoteBatches() *fanout.Subscription[[]domain.CastVote] {
	return h.voteFeed.Subscribe()
}

// CurrentSlide returns the current slide position.
func (h *Hub) CurrentSlide() domain.SlideState {
	return h.slides.Get()
}

// CurrentQuestions returns the current question state.
func (h *Hub) CurrentQuestions() domain.QuestionState {
	return h.questions.Get()
}

// CurrentPopulation returns the current viewer count.
func (h *Hub) CurrentPopulation() domain.Population {
	return h.population.Get()
}

// Stop shuts the pipeline down in dependency order: new votes are
// rejected, buffered ones are batched and delivered, then all streams
// complete gracefully. Blocks until done. Idempotent.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.votes.Close()
		h.batcher.Stop()
		h.wg.Wait()

		h.voteFeed.Close()
		h.slides.Close()
		h.questions.Close()
		h.population.Close()
		slog.Info("Hub stopped")
	})
}

func (h *Hub) countAdmin(name string) {
	metrics.AdminCommands.WithLabelValues(name).Inc()
}
