package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/five82/syncer/internal/logging"
	"github.com/five82/syncer/internal/logtail"
	"github.com/five82/syncer/internal/media"
	"github.com/five82/syncer/internal/offset"
	"github.com/five82/syncer/internal/prefs"
	"github.com/five82/syncer/internal/state"
)

// Controller is the offset controller the surface drives.
type Controller interface {
	Open(ctx context.Context) (offset.State, error)
	TogglePlayPause(ctx context.Context) (offset.State, error)
	GoLive(ctx context.Context) (offset.State, error)
	Nudge(ctx context.Context, delta float64) (offset.State, error)
	State() offset.State
	Snapshot() media.Snapshot
}

var _ Controller = (*offset.Controller)(nil)

// Options configures the UI.
type Options struct {
	Context    context.Context
	Controller Controller
	Store      *state.Store
	Clock      clockwork.Clock
	Logger     *slog.Logger
	PollTick   time.Duration
	NudgeSmall float64
	NudgeBig   float64
	LogPath    string
	ThemeName  string
	ShowLog    bool
	PrefsPath  string
}

const (
	holdTickInterval = 100 * time.Millisecond
	logPanelLines    = 8
)

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	ctrl       Controller
	store      *state.Store
	clock      clockwork.Clock
	logger     *slog.Logger
	prefsPath  string
	logPath    string
	pollTick   time.Duration
	nudgeSmall float64
	nudgeBig   float64

	// UI state
	theme    Theme
	keys     keyMap
	width    int
	height   int
	ready    bool
	showHelp bool
	showLog  bool

	// Offset state from the last successful action
	offset   offset.State
	media    media.Snapshot
	detected bool

	// Background poll reading
	poll state.Snapshot

	// Action state
	busy    bool
	pending string
	failed  bool
	lastErr error
	notice  string

	// Hold ticker; a tick whose generation differs from holdGen is dropped.
	holdGen int
	holding bool

	logLines []logtail.Line
}

// New creates a new Bubble Tea model. The model starts busy with a detect
// in flight; Init issues it.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	small, big := opts.NudgeSmall, opts.NudgeBig
	if small <= 0 {
		small = 1
	}
	if big <= 0 {
		big = 5
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	keys := defaultKeyMap()
	keys.CatchUpBig.SetHelp("←", fmt.Sprintf("Catch up %gs", big))
	keys.DelayBig.SetHelp("→", fmt.Sprintf("Delay %gs more", big))
	keys.CatchUpSmall.SetHelp("[", fmt.Sprintf("Catch up %gs", small))
	keys.DelaySmall.SetHelp("]", fmt.Sprintf("Delay %gs more", small))

	return Model{
		ctx:        ctx,
		ctrl:       opts.Controller,
		store:      opts.Store,
		clock:      clock,
		logger:     logger,
		prefsPath:  opts.PrefsPath,
		logPath:    opts.LogPath,
		pollTick:   pollTick,
		nudgeSmall: small,
		nudgeBig:   big,
		theme:      GetTheme(themeName),
		keys:       keys,
		showLog:    opts.ShowLog,
		busy:       opts.Controller != nil,
		pending:    "detect",
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{pollTickCmd(m.pollTick)}
	if m.ctrl != nil {
		cmds = append(cmds, m.actionCmd("detect", m.ctrl.Open))
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.showLog {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case pollTickMsg:
		return m.handlePollTick()

	case snapshotMsg:
		m.handleSnapshot(state.Snapshot(msg))
		return m, nil

	case holdTickMsg:
		if msg.gen != m.holdGen || !m.holding {
			return m, nil
		}
		return m, holdTickCmd(msg.gen)

	case actionResultMsg:
		return m.handleActionResult(msg)

	case logLinesMsg:
		if msg.err == nil {
			m.logLines = msg.lines
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ToggleLog):
		m.showLog = !m.showLog
		m.savePrefs()
		if m.showLog {
			return m, readLogsCmd(m.logPath)
		}
		return m, nil
	}

	if m.ctrl == nil || m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.PlayPause):
		label := "hold"
		if m.offset.Held() {
			label = "resume"
		}
		return m.start(label, m.ctrl.TogglePlayPause)

	case key.Matches(msg, m.keys.GoLive):
		return m.start("go live", m.ctrl.GoLive)

	case key.Matches(msg, m.keys.Redetect):
		return m.start("detect", m.ctrl.Open)

	case key.Matches(msg, m.keys.CatchUpBig):
		return m.startNudge(-m.nudgeBig)

	case key.Matches(msg, m.keys.DelayBig):
		return m.startNudge(m.nudgeBig)

	case key.Matches(msg, m.keys.CatchUpSmall):
		return m.startNudge(-m.nudgeSmall)

	case key.Matches(msg, m.keys.DelaySmall):
		return m.startNudge(m.nudgeSmall)
	}

	return m, nil
}

func (m Model) start(label string, fn func(context.Context) (offset.State, error)) (tea.Model, tea.Cmd) {
	m.busy = true
	m.pending = label
	return m, m.actionCmd(label, fn)
}

func (m Model) startNudge(delta float64) (tea.Model, tea.Cmd) {
	return m.start(fmt.Sprintf("nudge %+gs", delta), func(ctx context.Context) (offset.State, error) {
		return m.ctrl.Nudge(ctx, delta)
	})
}

func (m Model) handleActionResult(msg actionResultMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.pending = ""

	if msg.err != nil {
		// A failed transition may still have committed part of its work.
		m.offset = msg.state
		m.lastErr = msg.err
		m.logger.Info("action failed", slog.String("action", msg.label), slog.String("err", msg.err.Error()))
		lost := errors.Is(msg.err, media.ErrNoPlayer) || errors.Is(msg.err, media.ErrNoActiveTab)
		switch {
		case isRejection(msg.err):
			m.notice = msg.err.Error()
		case lost && msg.label == "detect":
			// Nothing to control yet; the readout shows unknown rather than ERR.
			m.detected = false
			m.failed = false
			m.notice = msg.err.Error()
		default:
			m.failed = true
			m.notice = ""
			if lost {
				m.detected = false
			}
		}
		if !m.detected {
			if m.holding {
				m.holding = false
				m.holdGen++
			}
			return m, nil
		}
		return m, m.syncHoldTicker()
	}

	m.failed = false
	m.lastErr = nil
	m.offset = msg.state
	m.media = msg.media
	m.detected = msg.media.Detected
	m.notice = msg.label
	return m, m.syncHoldTicker()
}

// syncHoldTicker starts a tick chain when the stream became held and retires
// the current chain when it stopped being held.
func (m *Model) syncHoldTicker() tea.Cmd {
	if m.offset.Held() {
		if m.holding {
			return nil
		}
		m.holding = true
		m.holdGen++
		return holdTickCmd(m.holdGen)
	}
	if m.holding {
		m.holding = false
		m.holdGen++
	}
	return nil
}

func (m Model) handlePollTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{pollTickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.showLog {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

// handleSnapshot folds a background reading into the view. Readings only
// refresh element flags for the session the controller is attached to; the
// delay itself always comes from the controller.
func (m *Model) handleSnapshot(snap state.Snapshot) {
	m.poll = snap
	if m.busy || !snap.HasMedia || snap.LastError != nil {
		return
	}
	if !m.detected || snap.Media.SessionID != m.media.SessionID {
		return
	}
	if !snap.Media.Detected {
		m.detected = false
		return
	}
	m.media.IsPaused = snap.Media.IsPaused
	m.media.IsMuted = snap.Media.IsMuted
	m.media.SourceURI = snap.Media.SourceURI
	m.media.SeekWindowSeconds = snap.Media.SeekWindowSeconds
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, ShowLog: m.showLog}); err != nil {
		m.logger.Warn("save prefs failed", slog.String("err", err.Error()))
	}
}

// onAir reports whether the on-air light is lit.
func (m Model) onAir() bool {
	return m.detected && !m.failed && !m.offset.Held() && m.media.OnAir()
}

// readout is the text of the delay display.
func (m Model) readout() string {
	switch {
	case m.failed:
		return readoutError
	case !m.detected:
		return readoutUnknown
	default:
		return formatLag(m.offset.DisplayDelay(m.clock.Now()))
	}
}

func isRejection(err error) bool {
	return errors.Is(err, offset.ErrAlreadyLive) || errors.Is(err, offset.ErrMaxDelay)
}

// Messages

type pollTickMsg time.Time

type snapshotMsg state.Snapshot

type holdTickMsg struct {
	gen int
}

type actionResultMsg struct {
	label string
	state offset.State
	media media.Snapshot
	err   error
}

type logLinesMsg struct {
	lines []logtail.Line
	err   error
}

// Commands

func pollTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

func holdTickCmd(gen int) tea.Cmd {
	return tea.Tick(holdTickInterval, func(time.Time) tea.Msg {
		return holdTickMsg{gen: gen}
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func (m Model) actionCmd(label string, fn func(context.Context) (offset.State, error)) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		st, err := fn(ctx)
		if err != nil {
			st = ctrl.State()
		}
		return actionResultMsg{label: label, state: st, media: ctrl.Snapshot(), err: err}
	}
}

func readLogsCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.ReadLines(path, logPanelLines)
		return logLinesMsg{lines: lines, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, programOpts...)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
