package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

// Controller is the coordinator surface the console acts on.
type Controller interface {
	Confirm(ctx context.Context, id string, overrides model.Overrides) (model.Suggestion, error)
	Dismiss(ctx context.Context, id string) error
	ReportIncorrectExtraction(ctx context.Context, raw string, tx model.ExtractedTransaction) error
	Visible() (model.Suggestion, bool)
}

// PrompterStats counts what the console has shown.
type PrompterStats struct {
	Shown     int
	Confirmed int
	Dismissed int
	Expired   int
	Notified  int
	Reported  int
	Failed    int
}

// Prompter is a line-oriented presenter for terminals without the TUI.
// Presenter callbacks only write output; user commands are read by Run.
type Prompter struct {
	writer      io.Writer
	reader      *NonBlockingReader
	auto        chan string
	stats       PrompterStats
	autoConfirm bool
	mu          sync.Mutex
}

// NewPrompter creates a console presenter. With autoConfirm every shown
// suggestion is confirmed unchanged.
func NewPrompter(reader io.Reader, writer io.Writer, autoConfirm bool) *Prompter {
	if writer == nil {
		writer = os.Stdout
	}
	p := &Prompter{
		writer:      writer,
		auto:        make(chan string, 64),
		autoConfirm: autoConfirm,
	}
	if reader != nil {
		p.reader = NewNonBlockingReader(reader)
	}
	return p
}

// ShowVisible implements coordinator.Presenter.
func (p *Prompter) ShowVisible(s model.Suggestion) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Shown++

	content := FormatTransaction(s.Transaction) + "\n\n" +
		SubtleStyle.Render(fmt.Sprintf("Closes in %s · [c]onfirm [title] · [d]ismiss · [r]eport", s.DisplayFor))
	p.println(RenderBox(s.Title(), content))

	if p.autoConfirm {
		select {
		case p.auto <- s.ID:
		default:
			slog.Warn("Auto-confirm backlog full", "suggestion_id", s.ID)
		}
	}
}

// DismissVisible implements coordinator.Presenter.
func (p *Prompter) DismissVisible(s model.Suggestion, reason model.DismissReason) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch reason {
	case model.DismissByConfirm:
		p.stats.Confirmed++
		p.println(FormatSuccess("Saved " + s.Title()))
	case model.DismissByTimeout:
		p.stats.Expired++
		p.println(SubtleStyle.Render("Suggestion expired: " + s.Title()))
	case model.DismissByReport:
		p.stats.Reported++
		p.println(FormatInfo("Reported extraction for " + s.Title()))
	case model.DismissByBackground:
		p.println(SubtleStyle.Render("Hidden while in background: " + s.Title()))
	default:
		p.stats.Dismissed++
		p.println(SubtleStyle.Render("Dismissed " + s.Title()))
	}
}

// ShowFallbackNotification implements coordinator.Presenter.
func (p *Prompter) ShowFallbackNotification(s model.Suggestion) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Notified++
	p.println(InfoStyle.Render(fmt.Sprintf("%s %s %s", BellIcon, s.Title(), FormatAmount(s.Transaction))))
}

// PersistenceFailed implements coordinator.FailureObserver.
func (p *Prompter) PersistenceFailed(s model.Suggestion, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Failed++
	p.println(FormatError(fmt.Sprintf("Could not save %s: %v", s.Title(), err)))
}

// Stats returns a snapshot of the counters.
func (p *Prompter) Stats() PrompterStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Run reads commands until ctx ends, the user quits or input closes.
// In auto-confirm mode closed input does not stop it.
func (p *Prompter) Run(ctx context.Context, ctrl Controller) error {
	var lines <-chan string
	if p.reader != nil {
		lines = p.reader.Lines(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case id := <-p.auto:
			p.confirm(ctx, ctrl, id, model.Overrides{})
		case line, ok := <-lines:
			if !ok {
				lines = nil
				if !p.autoConfirm {
					return nil
				}
				continue
			}
			if quit := p.handle(ctx, ctrl, line); quit {
				return nil
			}
		}
	}
}

func (p *Prompter) handle(ctx context.Context, ctrl Controller, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return false
	case "q", "quit", "exit":
		return true
	case "?", "h", "help":
		p.write(FormatInfo("c [title] confirms, d dismisses, r reports a misread message, q quits"))
		return false
	}

	s, ok := ctrl.Visible()
	if !ok {
		p.write(FormatWarning("No suggestion on screen"))
		return false
	}

	switch strings.ToLower(cmd) {
	case "c", "confirm", "y", "yes":
		p.confirm(ctx, ctrl, s.ID, model.Overrides{Title: arg})
	case "d", "dismiss", "n", "no":
		p.report(ctrl.Dismiss(ctx, s.ID), "dismiss")
	case "r", "report":
		p.report(ctrl.ReportIncorrectExtraction(ctx, s.RawMessage, s.Transaction), "report")
	default:
		p.write(FormatWarning(fmt.Sprintf("Unknown command %q, type ? for help", cmd)))
	}
	return false
}

func (p *Prompter) confirm(ctx context.Context, ctrl Controller, id string, overrides model.Overrides) {
	_, err := ctrl.Confirm(ctx, id, overrides)
	p.report(err, "confirm")
}

func (p *Prompter) report(err error, action string) {
	switch {
	case err == nil:
	case errors.Is(err, common.ErrNoVisibleSuggestion), errors.Is(err, common.ErrStaleSuggestion):
		p.write(FormatWarning("That suggestion is no longer on screen"))
	default:
		p.write(FormatError(fmt.Sprintf("Failed to %s: %v", action, err)))
	}
}

func (p *Prompter) write(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.println(line)
}

func (p *Prompter) println(line string) {
	if _, err := fmt.Fprintln(p.writer, line); err != nil {
		slog.Warn("Failed to write to terminal", "error", err)
	}
}
