package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"schnicken/internal/domain"
	"schnicken/internal/logger"
)

// Sender delivers one text message to the group chat.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// PlayerLookup resolves display names.
type PlayerLookup interface {
	GetPlayer(ctx context.Context, id string) (*domain.Player, error)
}

// queueSize bounds notifications waiting for the chat.
const queueSize = 1024

type job struct {
	ctx context.Context
	e   domain.Event
}

// Notifier turns game events into chat messages. One worker sends them in
// event order; failures are logged and never reach the game.
type Notifier struct {
	sender  Sender
	players PlayerLookup
	msgs    Messages
	timeout time.Duration
	log     *slog.Logger

	queue   chan job
	done    chan struct{}
	pending sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewNotifier(sender Sender, players PlayerLookup, appURL string) *Notifier {
	n := &Notifier{
		sender:  sender,
		players: players,
		msgs:    Messages{AppURL: appURL},
		timeout: 10 * time.Second,
		log:     logger.With("component", "notifier"),
		queue:   make(chan job, queueSize),
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

// Handle is an events.Handler. It only enqueues; a full queue drops the event.
func (n *Notifier) Handle(ctx context.Context, e domain.Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.log.Warn("notifier closed, event dropped", "event", e.Type(), "game_id", e.GameID())
		return
	}

	n.pending.Add(1)
	select {
	case n.queue <- job{ctx: context.WithoutCancel(ctx), e: e}:
	default:
		n.pending.Done()
		n.log.Warn("notification queue full, event dropped", "event", e.Type(), "game_id", e.GameID())
	}
}

func (n *Notifier) run() {
	defer close(n.done)
	for j := range n.queue {
		n.deliver(j)
		n.pending.Done()
	}
}

func (n *Notifier) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, n.timeout)
	defer cancel()

	for _, text := range n.messagesFor(ctx, j.e) {
		if err := n.sender.Send(ctx, text); err != nil {
			n.log.Warn("notification failed", "event", j.e.Type(), "game_id", j.e.GameID(), "error", err)
		}
	}
}

// Wait blocks until everything enqueued so far is sent.
func (n *Notifier) Wait() {
	n.pending.Wait()
}

// Close stops accepting events, sends what is queued and stops the worker.
func (n *Notifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()
	<-n.done
}

func (n *Notifier) messagesFor(ctx context.Context, e domain.Event) []string {
	g := e.Snapshot()
	names := n.names(ctx, g)
	s, a := names[g.SchnickerID], names[g.AngeschnickterID]

	switch ev := e.(type) {
	case domain.GameCreated:
		out := []string{n.msgs.NewSchnick(s, a, g.Task)}
		if g.Wager == nil {
			out = append(out, n.msgs.ActionRequired(a, ActionSetWager))
		}
		return out

	case domain.WagerSet:
		return []string{n.msgs.BockUpdate(names[ev.PlayerID], ev.Wager)}

	case domain.SubmissionRecorded:
		waiting := ""
		if !ev.RoundComplete {
			waiting = names[g.Opponent(ev.Submission.PlayerID)]
		}
		return []string{n.msgs.RoundSubmission(ev.Submission.Round, names[ev.Submission.PlayerID], waiting)}

	case domain.GameStatusChanged:
		switch ev.To {
		case domain.GameStatusRound2:
			return []string{
				n.msgs.ActionRequired(s, ActionRound2),
				n.msgs.ActionRequired(a, ActionRound2),
			}
		case domain.GameStatusFinished:
			return []string{n.msgs.GameResult(Result{
				Game:           g,
				Schnicker:      s,
				Angeschnickter: a,
				Submissions:    ev.Submissions,
				Names:          names,
			})}
		}
	}
	return nil
}

func (n *Notifier) names(ctx context.Context, g *domain.Game) map[string]string {
	out := make(map[string]string, 2)
	for _, id := range g.Players() {
		out[id] = id
		p, err := n.players.GetPlayer(ctx, id)
		if err != nil {
			n.log.Debug("player lookup failed", "player_id", id, "error", err)
			continue
		}
		out[id] = p.Name
	}
	return out
}

// LogSender writes messages to the log instead of a chat.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, text string) error {
	logger.WithContext(ctx).Info("notification", "text", text)
	return nil
}
