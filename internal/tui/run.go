package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

// App owns the bubbletea program. The coordinator needs the presenter
// before it exists, so the controller is bound after construction.
type App struct {
	program   *tea.Program
	presenter *Presenter
	recorder  *Recorder
	ref       *controllerRef
}

// New creates the popup app.
func New(ctx context.Context, opts ...Option) *App {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ref := &controllerRef{}
	m := newModel(ctx, cfg, ref)
	m.recorder = NewRecorder(cfg.Record)

	programOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithReportFocus()}
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	if cfg.InputTTY {
		programOpts = append(programOpts, tea.WithInputTTY())
	}
	program := tea.NewProgram(m, programOpts...)

	return &App{
		program:   program,
		presenter: NewPresenter(program),
		recorder:  m.recorder,
		ref:       ref,
	}
}

// Presenter returns the coordinator-facing side of the app.
func (a *App) Presenter() *Presenter {
	return a.presenter
}

// Bind attaches the coordinator.
func (a *App) Bind(ctrl Controller) {
	a.ref.set(ctrl)
}

// Run blocks until the user quits or the context ends.
func (a *App) Run() error {
	defer a.recorder.Close()

	if _, err := a.program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// Quit stops the program from another goroutine.
func (a *App) Quit() {
	a.program.Quit()
}

// errNotBound is returned by actions issued before Bind.
var errNotBound = fmt.Errorf("%w: popup is not attached to a coordinator", common.ErrMonitoringInactive)

type controllerRef struct {
	ctrl Controller
	mu   sync.RWMutex
}

func (r *controllerRef) set(c Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctrl = c
}

func (r *controllerRef) get() Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ctrl
}

func (r *controllerRef) Confirm(ctx context.Context, id string, o model.Overrides) (model.Suggestion, error) {
	c := r.get()
	if c == nil {
		return model.Suggestion{}, errNotBound
	}
	return c.Confirm(ctx, id, o)
}

func (r *controllerRef) Dismiss(ctx context.Context, id string) error {
	c := r.get()
	if c == nil {
		return errNotBound
	}
	return c.Dismiss(ctx, id)
}

func (r *controllerRef) ReportIncorrectExtraction(ctx context.Context, raw string, tx model.ExtractedTransaction) error {
	c := r.get()
	if c == nil {
		return errNotBound
	}
	return c.ReportIncorrectExtraction(ctx, raw, tx)
}

func (r *controllerRef) Foreground(ctx context.Context) {
	if c := r.get(); c != nil {
		c.Foreground(ctx)
	}
}

func (r *controllerRef) Background() {
	if c := r.get(); c != nil {
		c.Background()
	}
}
