// Package app owns the live-monitoring controller: the mode state machine,
// the alert poller, the query session, and the preference-driven wiring
// between them. It runs as a single Bubble Tea event loop; every piece of
// I/O is a command resolving to a typed message.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/AlyssaVMeczkowska/care-radar/internal/activity"
	"github.com/AlyssaVMeczkowska/care-radar/internal/api"
	"github.com/AlyssaVMeczkowska/care-radar/internal/prefs"
	"github.com/AlyssaVMeczkowska/care-radar/internal/storage"
)

type mode int

const (
	modeQuery mode = iota
	modeRadar
	modeAnalytics
)

func (m mode) String() string {
	switch m {
	case modeQuery:
		return "Query"
	case modeRadar:
		return "Radar"
	case modeAnalytics:
		return "Analytics"
	}
	return "Unknown"
}

func nextMode(m mode) mode {
	switch m {
	case modeQuery:
		return modeRadar
	case modeRadar:
		return modeAnalytics
	default:
		return modeQuery
	}
}

func prevMode(m mode) mode {
	switch m {
	case modeQuery:
		return modeAnalytics
	case modeRadar:
		return modeQuery
	default:
		return modeRadar
	}
}

type refreshTickMsg struct {
	gen int
	at  time.Time
}

type alertsMsg struct {
	feed *api.AlertFeed
	err  error
}

type queryDoneMsg struct {
	question string
	result   *api.QueryResult
	err      error
}

type analyticsMsg struct {
	window string
	report *api.AnalyticsReport
	err    error
}

type patientMsg struct {
	id      string
	profile *api.PatientProfile
	err     error
}

type stateSavedMsg struct {
	err error
}

const (
	settingHighThreshold = iota
	settingMediumThreshold
	settingEmail
	settingSMS
	settingAutoRefresh
	settingSaveQuery
	settingCount
)

const fetchTimeout = 10 * time.Second

type Options struct {
	RefreshEvery time.Duration
}

type Model struct {
	client *api.Client
	store  *storage.Store // nil means session-only state
	log    *zap.Logger

	prefs    *prefs.Store
	activity *activity.Log

	refreshEvery time.Duration

	ready  bool
	width  int
	height int

	mode            mode
	selectedPatient string
	settingsOpen    bool
	settingsCursor  int

	// Radar. pollGen is bumped on every exit from the polling state so a
	// scheduled tick from a dead generation can never reschedule itself;
	// at most one generation is ever live.
	pollGen     int
	timerActive bool
	scanning    bool
	alerts      []api.Alert
	metrics     api.Metrics
	lastScanAt  time.Time

	// Query session.
	queryInput   textinput.Model
	spinner      spinner.Model
	querying     bool
	queryResult  *api.QueryResult
	resultCursor int

	// Analytics.
	analyticsRange   string
	analyticsLoading bool
	analytics        *api.AnalyticsReport

	// Patient overlay.
	patientLoading bool
	patient        *api.PatientProfile

	statusText string
	errorText  string
}

func NewModel(client *api.Client, store *storage.Store, logger *zap.Logger, prefStore *prefs.Store, activityLog *activity.Log, opts Options) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefStore == nil {
		prefStore = prefs.NewStore(prefs.Defaults())
	}
	if activityLog == nil {
		activityLog = activity.NewLog()
	}
	refreshEvery := opts.RefreshEvery
	if refreshEvery <= 0 {
		refreshEvery = 30 * time.Second
	}

	input := textinput.New()
	input.Placeholder = "Which diabetic patients over 60 haven't had an A1c test in six months?"
	input.Prompt = "> "
	input.CharLimit = 512
	input.Width = 70
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = lipgloss.NewStyle().Foreground(accentSecondary)

	return Model{
		client:         client,
		store:          store,
		log:            logger,
		prefs:          prefStore,
		activity:       activityLog,
		refreshEvery:   refreshEvery,
		mode:           modeQuery,
		queryInput:     input,
		spinner:        spin,
		analyticsRange: "30d",
		statusText:     "Connected. Ask a clinical question, or tab to radar mode.",
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func fetchAlertsCmd(c *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		feed, err := c.FetchAlerts(ctx)
		return alertsMsg{feed: feed, err: err}
	}
}

func refreshTickCmd(every time.Duration, gen int) tea.Cmd {
	return tea.Tick(every, func(at time.Time) tea.Msg {
		return refreshTickMsg{gen: gen, at: at}
	})
}

func submitQueryCmd(c *api.Client, question string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		result, err := c.SubmitQuery(ctx, question)
		return queryDoneMsg{question: question, result: result, err: err}
	}
}

func fetchAnalyticsCmd(c *api.Client, window string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		report, err := c.FetchAnalytics(ctx, window)
		return analyticsMsg{window: window, report: report, err: err}
	}
}

func fetchPatientCmd(c *api.Client, patientID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		profile, err := c.FetchPatient(ctx, patientID)
		return patientMsg{id: patientID, profile: profile, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case spinner.TickMsg:
		if !m.querying && !m.patientLoading && !m.analyticsLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshTickMsg:
		if !m.timerActive || msg.gen != m.pollGen {
			return m, nil
		}
		if m.mode != modeRadar || !m.prefs.Get().AutoRefresh {
			m.stopPolling()
			return m, nil
		}
		m.scanning = true
		return m, tea.Batch(
			fetchAlertsCmd(m.client),
			refreshTickCmd(m.refreshEvery, m.pollGen),
		)

	case alertsMsg:
		m.scanning = false
		if m.mode != modeRadar {
			// Result arrived after leaving radar; a stale update must not
			// land on an inactive screen.
			return m, nil
		}
		if msg.err != nil {
			m.alerts = nil
			m.metrics = api.Metrics{}
			m.log.Warn("alert fetch failed", zap.Error(msg.err))
			m.statusText = "Scan failed; alert feed cleared."
			return m, nil
		}
		m.alerts = msg.feed.Alerts
		m.metrics = msg.feed.Metrics
		m.lastScanAt = time.Now()
		m.activity.Record(activity.KindAlert, fmt.Sprintf("Scan complete: %d alerts", len(m.alerts)))
		m.statusText = fmt.Sprintf("Radar updated: %d active alerts", m.metrics.ActiveAlerts)
		return m, nil

	case queryDoneMsg:
		m.querying = false
		if msg.err != nil {
			m.errorText = "Query failed: " + msg.err.Error()
			m.statusText = ""
			return m, nil
		}
		m.errorText = ""
		m.queryResult = msg.result
		m.resultCursor = 0
		m.activity.Record(activity.KindQuery,
			fmt.Sprintf("Searched: %q - %d results", msg.question, len(msg.result.Results)))
		m.statusText = fmt.Sprintf("%d patients matched in %.0f ms",
			len(msg.result.Results), msg.result.ExecutionTime)
		return m, nil

	case analyticsMsg:
		if msg.window != m.analyticsRange {
			return m, nil
		}
		m.analyticsLoading = false
		if msg.err != nil {
			m.errorText = "Analytics load failed: " + msg.err.Error()
			return m, nil
		}
		m.errorText = ""
		m.analytics = msg.report
		return m, nil

	case patientMsg:
		if msg.id != m.selectedPatient {
			return m, nil
		}
		m.patientLoading = false
		if msg.err != nil {
			m.errorText = "Patient lookup failed: " + msg.err.Error()
			return m, nil
		}
		m.errorText = ""
		m.patient = msg.profile
		return m, nil

	case stateSavedMsg:
		if msg.err != nil {
			m.log.Warn("session state save failed", zap.Error(msg.err))
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.settingsOpen {
		return m.updateSettings(msg)
	}
	if m.selectedPatient != "" {
		return m.updatePatientOverlay(msg)
	}

	switch msg.String() {
	case "tab":
		return m, m.setMode(nextMode(m.mode))
	case "shift+tab", "backtab":
		return m, m.setMode(prevMode(m.mode))
	case "ctrl+e":
		m.settingsOpen = true
		m.settingsCursor = 0
		return m, nil
	}

	switch m.mode {
	case modeQuery:
		return m.updateQueryMode(msg)
	case modeRadar:
		return m.updateRadarMode(msg)
	case modeAnalytics:
		return m.updateAnalyticsMode(msg)
	}
	return m, nil
}

func (m Model) updateQueryMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m, m.submitQuery()
	case "ctrl+s":
		m.saveCurrentQuery()
		return m, m.persistCmd()
	case "ctrl+o":
		return m, m.openSelectedPatient()
	case "up":
		if m.queryResult != nil && m.resultCursor > 0 {
			m.resultCursor--
		}
		return m, nil
	case "down":
		if m.queryResult != nil && m.resultCursor < len(m.queryResult.Results)-1 {
			m.resultCursor++
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.queryInput, cmd = m.queryInput.Update(msg)
	return m, cmd
}

func (m Model) updateRadarMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		// Scan now: one fetch, recurrence schedule untouched.
		m.scanning = true
		m.statusText = "Scanning..."
		return m, fetchAlertsCmd(m.client)
	}
	return m, nil
}

func (m Model) updateAnalyticsMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "1", "2", "3", "4":
		idx := int(msg.String()[0] - '1')
		window := api.AnalyticsRanges[idx]
		if window == m.analyticsRange && m.analytics != nil {
			return m, nil
		}
		m.analyticsRange = window
		m.analyticsLoading = true
		return m, tea.Batch(m.spinner.Tick, fetchAnalyticsCmd(m.client, window))
	}
	return m, nil
}

func (m Model) updatePatientOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		// Back preserves the underlying mode.
		m.selectedPatient = ""
		m.patient = nil
		m.patientLoading = false
		return m, nil
	case "tab":
		return m, m.setMode(nextMode(m.mode))
	case "shift+tab", "backtab":
		return m, m.setMode(prevMode(m.mode))
	}
	return m, nil
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+e":
		m.settingsOpen = false
		return m, m.persistCmd()
	case "up", "k":
		if m.settingsCursor > 0 {
			m.settingsCursor--
		}
		return m, nil
	case "down", "j":
		if m.settingsCursor < settingCount-1 {
			m.settingsCursor++
		}
		return m, nil
	case "left", "h":
		m.adjustThreshold(-1)
		return m, nil
	case "right", "l":
		m.adjustThreshold(1)
		return m, nil
	case "enter", " ":
		return m, m.activateSetting()
	}
	return m, nil
}

func (m *Model) adjustThreshold(delta int) {
	current := m.prefs.Get()
	switch m.settingsCursor {
	case settingHighThreshold:
		v := current.HighAlertThreshold + delta
		if v < 0 {
			v = 0
		}
		m.prefs.Apply(prefs.Update{HighAlertThreshold: &v})
	case settingMediumThreshold:
		v := current.MediumAlertThreshold + delta
		if v < 0 {
			v = 0
		}
		m.prefs.Apply(prefs.Update{MediumAlertThreshold: &v})
	}
}

func (m *Model) activateSetting() tea.Cmd {
	current := m.prefs.Get()
	switch m.settingsCursor {
	case settingEmail:
		v := !current.EmailNotifications
		m.prefs.Apply(prefs.Update{EmailNotifications: &v})
	case settingSMS:
		v := !current.SMSNotifications
		m.prefs.Apply(prefs.Update{SMSNotifications: &v})
	case settingAutoRefresh:
		return m.setAutoRefresh(!current.AutoRefresh)
	case settingSaveQuery:
		m.saveCurrentQuery()
	}
	return nil
}

// setMode switches the active screen and drives the poller's entry/exit.
func (m *Model) setMode(next mode) tea.Cmd {
	if next == m.mode {
		return nil
	}
	prev := m.mode
	m.mode = next
	m.errorText = ""
	m.statusText = next.String() + " mode"

	var cmds []tea.Cmd
	if prev == modeRadar {
		m.stopPolling()
	}
	switch next {
	case modeRadar:
		cmds = append(cmds, m.startPolling()...)
	case modeAnalytics:
		m.analyticsLoading = true
		cmds = append(cmds, m.spinner.Tick, fetchAnalyticsCmd(m.client, m.analyticsRange))
	case modeQuery:
		cmds = append(cmds, textinput.Blink)
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// startPolling performs the entry fetch and, while auto-refresh is on, arms
// a fresh tick generation.
func (m *Model) startPolling() []tea.Cmd {
	m.scanning = true
	cmds := []tea.Cmd{fetchAlertsCmd(m.client)}
	if m.prefs.Get().AutoRefresh {
		m.pollGen++
		m.timerActive = true
		cmds = append(cmds, refreshTickCmd(m.refreshEvery, m.pollGen))
	}
	return cmds
}

// stopPolling orphans any scheduled tick. Its generation will no longer
// match when it fires, so the recurrence dies deterministically.
func (m *Model) stopPolling() {
	m.pollGen++
	m.timerActive = false
}

func (m *Model) setAutoRefresh(enabled bool) tea.Cmd {
	m.prefs.Apply(prefs.Update{AutoRefresh: &enabled})
	if m.mode != modeRadar {
		return nil
	}
	if !enabled {
		m.stopPolling()
		return nil
	}
	if m.timerActive {
		return nil
	}
	return tea.Batch(m.startPolling()...)
}

func (m *Model) submitQuery() tea.Cmd {
	question := strings.TrimSpace(m.queryInput.Value())
	if question == "" {
		m.errorText = "Enter a clinical question before searching."
		return nil
	}
	if m.querying {
		// Serialized, not queued: overlapping submissions are refused.
		m.errorText = "A query is already running; wait for it to finish."
		return nil
	}
	m.querying = true
	m.errorText = ""
	m.statusText = "Analyzing patient data..."
	return tea.Batch(m.spinner.Tick, submitQueryCmd(m.client, question))
}

func (m *Model) saveCurrentQuery() {
	text, ok := m.prefs.AddSavedQuery(m.queryInput.Value())
	if !ok {
		m.statusText = "Query not saved (empty or already saved)."
		return
	}
	m.activity.Record(activity.KindSave, fmt.Sprintf("Saved query: %q", text))
	m.statusText = "Saved query."
}

func (m *Model) openSelectedPatient() tea.Cmd {
	if m.queryResult == nil || len(m.queryResult.Results) == 0 {
		return nil
	}
	row := m.queryResult.Results[clampInt(m.resultCursor, 0, len(m.queryResult.Results)-1)]
	m.selectedPatient = row.ID
	m.patient = nil
	m.patientLoading = true
	m.activity.Record(activity.KindView, "Viewed patient "+row.ID)
	return tea.Batch(m.spinner.Tick, fetchPatientCmd(m.client, row.ID))
}

func (m *Model) persistCmd() tea.Cmd {
	if m.store == nil {
		return nil
	}
	state := storage.SessionState{
		Preferences: m.prefs.Get(),
		Activity:    m.activity.Snapshot(),
	}
	store := m.store
	return func() tea.Msg {
		return stateSavedMsg{err: store.Save(state)}
	}
}
