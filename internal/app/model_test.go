package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AlyssaVMeczkowska/care-radar/internal/activity"
	"github.com/AlyssaVMeczkowska/care-radar/internal/api"
	"github.com/AlyssaVMeczkowska/care-radar/internal/prefs"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	m := NewModel(api.NewClient("http://localhost:0", nil), nil, nil, nil, nil, Options{RefreshEvery: time.Minute})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+e":
		return tea.KeyMsg{Type: tea.KeyCtrlE}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(keyMsg(key))
	return updated.(Model), cmd
}

func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func TestEnteringRadarArmsTimerAndFetches(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m, cmd := press(t, m, "tab")

	if m.mode != modeRadar {
		t.Fatalf("expected radar mode, got %v", m.mode)
	}
	if !m.timerActive {
		t.Fatalf("auto-refresh is on by default; timer must be armed on entry")
	}
	if !m.scanning {
		t.Fatalf("entry must start an immediate scan")
	}
	if cmd == nil {
		t.Fatalf("expected fetch + tick commands on radar entry")
	}
}

func TestEnteringRadarWithAutoRefreshOffSkipsTimer(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	off := false
	m.prefs.Apply(prefs.Update{AutoRefresh: &off})

	m, cmd := press(t, m, "tab")
	if m.timerActive {
		t.Fatalf("timer must stay disarmed when auto-refresh is off")
	}
	if cmd == nil {
		t.Fatalf("a one-shot entry fetch is still expected")
	}
}

func TestLeavingRadarOrphansScheduledTick(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m, _ = press(t, m, "tab") // query -> radar
	liveGen := m.pollGen

	m, _ = press(t, m, "tab") // radar -> analytics
	if m.timerActive {
		t.Fatalf("timer must stop when radar is exited")
	}
	if m.pollGen == liveGen {
		t.Fatalf("exiting radar must retire the live tick generation")
	}

	// The tick scheduled before the exit eventually fires; it must be inert.
	m, cmd := apply(t, m, refreshTickMsg{gen: liveGen, at: time.Now()})
	if cmd != nil {
		t.Fatalf("stale-generation tick must not reschedule or fetch")
	}
	if m.timerActive {
		t.Fatalf("stale tick must not rearm the timer")
	}
}

func TestLiveTickFetchesAndReschedules(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m, _ = press(t, m, "tab")
	m.scanning = false

	m, cmd := apply(t, m, refreshTickMsg{gen: m.pollGen, at: time.Now()})
	if cmd == nil {
		t.Fatalf("live tick must fetch and schedule the next tick")
	}
	if !m.scanning {
		t.Fatalf("live tick must mark a scan in flight")
	}
}

func TestAutoRefreshToggleStopsAndRestartsPolling(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m, _ = press(t, m, "tab")

	// Settings: cursor down to auto refresh, toggle off.
	m, _ = press(t, m, "ctrl+e")
	m.settingsCursor = settingAutoRefresh
	m, cmd := press(t, m, "enter")
	if m.timerActive {
		t.Fatalf("disabling auto-refresh in radar mode must stop the timer")
	}
	if cmd != nil {
		t.Fatalf("disabling must not emit commands")
	}

	m, cmd = press(t, m, "enter")
	if !m.timerActive {
		t.Fatalf("re-enabling auto-refresh in radar mode must rearm the timer")
	}
	if cmd == nil {
		t.Fatalf("re-enabling must fetch and schedule")
	}
	if !m.prefs.Get().AutoRefresh {
		t.Fatalf("preference flag out of sync with poller")
	}
}

func TestAutoRefreshToggleOutsideRadarTouchesNothing(t *testing.T) {
	t.Parallel()

	m := newTestModel(t) // query mode
	m, _ = press(t, m, "ctrl+e")
	m.settingsCursor = settingAutoRefresh
	m, cmd := press(t, m, "enter")

	if cmd != nil || m.timerActive {
		t.Fatalf("toggling auto-refresh outside radar must only flip the preference")
	}
	if m.prefs.Get().AutoRefresh {
		t.Fatalf("preference must still be updated")
	}
}

func TestAlertResultAfterLeavingRadarIsDiscarded(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m, _ = press(t, m, "tab")       // radar, fetch in flight
	m, _ = press(t, m, "shift+tab") // back to query before the result lands

	feed := &api.AlertFeed{
		Alerts:  []api.Alert{{ID: 1, Severity: api.SeverityHigh}},
		Metrics: api.Metrics{ActiveAlerts: 1},
	}
	m, _ = apply(t, m, alertsMsg{feed: feed})

	if len(m.alerts) != 0 {
		t.Fatalf("late alert result must not land on an inactive screen")
	}
	for _, entry := range m.activity.List() {
		if entry.Kind == activity.KindAlert {
			t.Fatalf("discarded result must not be recorded as activity")
		}
	}
}

func TestSuccessfulScanReplacesAlertsAndRecordsActivity(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m, _ = press(t, m, "tab")
	m.alerts = []api.Alert{{ID: 99}}

	feed := &api.AlertFeed{
		Alerts:  []api.Alert{{ID: 1, Severity: api.SeverityHigh}, {ID: 2, Severity: api.SeverityLow}},
		Metrics: api.Metrics{ActiveAlerts: 2, PatientsMonitored: 1847},
	}
	m, _ = apply(t, m, alertsMsg{feed: feed})

	if len(m.alerts) != 2 || m.alerts[0].ID != 1 {
		t.Fatalf("scan must replace the whole alert set, got %+v", m.alerts)
	}
	if m.metrics.PatientsMonitored != 1847 {
		t.Fatalf("metrics not applied: %+v", m.metrics)
	}
	entries := m.activity.List()
	if len(entries) == 0 || entries[0].Description != "Scan complete: 2 alerts" {
		t.Fatalf("expected scan activity entry, got %+v", entries)
	}
}

func TestFailedScanClearsAlertSet(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m, _ = press(t, m, "tab")
	m.alerts = []api.Alert{{ID: 1}}
	m.metrics = api.Metrics{ActiveAlerts: 1}

	m, _ = apply(t, m, alertsMsg{err: errors.New("connection refused")})

	if len(m.alerts) != 0 {
		t.Fatalf("failed scan must clear the alert set")
	}
	if m.metrics.ActiveAlerts != 0 {
		t.Fatalf("failed scan must zero the metrics")
	}
}

func TestSubmitEmptyQuestionIsRejectedLocally(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.queryInput.SetValue("   ")
	m, cmd := press(t, m, "enter")

	if cmd != nil {
		t.Fatalf("blank question must not produce a network command")
	}
	if m.errorText == "" {
		t.Fatalf("blank question must surface an inline error")
	}
	if m.querying {
		t.Fatalf("blank question must not start a query")
	}
}

func TestOverlappingSubmitIsRefused(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.queryInput.SetValue("diabetic patients over 60")
	m, cmd := press(t, m, "enter")
	if cmd == nil || !m.querying {
		t.Fatalf("first submit must start a query")
	}

	m, cmd = press(t, m, "enter")
	if cmd != nil {
		t.Fatalf("second submit while one is running must be refused")
	}
	if !strings.Contains(m.errorText, "already running") {
		t.Fatalf("expected busy error, got %q", m.errorText)
	}
}

func TestQueryCompletionRecordsActivity(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.querying = true

	result := &api.QueryResult{
		Results:       []api.PatientRow{{ID: "P2847", Age: 67}},
		Narrative:     "1 patient matches.",
		ExecutionTime: 120,
	}
	m, _ = apply(t, m, queryDoneMsg{question: "diabetic patients over 60", result: result})

	if m.querying {
		t.Fatalf("completion must clear the in-flight flag")
	}
	if m.queryResult == nil || len(m.queryResult.Results) != 1 {
		t.Fatalf("result not stored: %+v", m.queryResult)
	}
	entries := m.activity.List()
	want := `Searched: "diabetic patients over 60" - 1 results`
	if len(entries) == 0 || entries[0].Description != want {
		t.Fatalf("expected activity %q, got %+v", want, entries)
	}
}

func TestQueryFailureKeepsPreviousResult(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.queryResult = &api.QueryResult{Narrative: "previous"}
	m.querying = true

	m, _ = apply(t, m, queryDoneMsg{question: "x", err: errors.New("boom")})

	if m.queryResult == nil || m.queryResult.Narrative != "previous" {
		t.Fatalf("failure must not clobber the previous result")
	}
	if m.errorText == "" {
		t.Fatalf("failure must surface an error")
	}
}

func TestSaveQueryRecordsActivityOnce(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.queryInput.SetValue("overdue mammograms")
	m, _ = press(t, m, "ctrl+s")
	m, _ = press(t, m, "ctrl+s") // duplicate, must not record again

	saves := 0
	for _, entry := range m.activity.List() {
		if entry.Kind == activity.KindSave {
			saves++
		}
	}
	if saves != 1 {
		t.Fatalf("expected exactly one save entry, got %d", saves)
	}
	if got := m.prefs.Get().SavedQueries; len(got) != 1 || got[0] != "overdue mammograms" {
		t.Fatalf("unexpected saved queries: %v", got)
	}
}

func TestPatientOverlayPreservesModeOnBack(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.queryResult = &api.QueryResult{Results: []api.PatientRow{{ID: "P2847"}}}

	m, cmd := press(t, m, "ctrl+o")
	if m.selectedPatient != "P2847" || cmd == nil {
		t.Fatalf("expected patient fetch for P2847")
	}
	entries := m.activity.List()
	if len(entries) == 0 || entries[0].Description != "Viewed patient P2847" {
		t.Fatalf("expected view activity entry, got %+v", entries)
	}

	m, _ = press(t, m, "esc")
	if m.selectedPatient != "" {
		t.Fatalf("esc must close the overlay")
	}
	if m.mode != modeQuery {
		t.Fatalf("closing the overlay must return to the prior mode, got %v", m.mode)
	}
}

func TestStalePatientResultIsIgnored(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.selectedPatient = "P2"
	m.patientLoading = true

	m, _ = apply(t, m, patientMsg{id: "P1", profile: &api.PatientProfile{ID: "P1"}})
	if m.patient != nil {
		t.Fatalf("result for a different patient must be ignored")
	}
	if !m.patientLoading {
		t.Fatalf("loading state belongs to the live request")
	}
}

func TestStaleAnalyticsWindowIsIgnored(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.analyticsRange = "90d"
	m.analyticsLoading = true

	m, _ = apply(t, m, analyticsMsg{window: "30d", report: &api.AnalyticsReport{TotalPatients: 5}})
	if m.analytics != nil {
		t.Fatalf("report for a superseded window must be ignored")
	}

	m, _ = apply(t, m, analyticsMsg{window: "90d", report: &api.AnalyticsReport{TotalPatients: 1847}})
	if m.analytics == nil || m.analytics.TotalPatients != 1847 {
		t.Fatalf("report for the live window must be applied")
	}
	if m.analyticsLoading {
		t.Fatalf("live report must clear the loading flag")
	}
}

func TestSettingsAdjustThresholdsAndFloorAtZero(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m, _ = press(t, m, "ctrl+e")
	if !m.settingsOpen {
		t.Fatalf("ctrl+e must open settings")
	}

	m, _ = press(t, m, "right")
	if got := m.prefs.Get().HighAlertThreshold; got != 4 {
		t.Fatalf("expected high threshold 4, got %d", got)
	}

	for i := 0; i < 10; i++ {
		m, _ = press(t, m, "left")
	}
	if got := m.prefs.Get().HighAlertThreshold; got != 0 {
		t.Fatalf("threshold must floor at zero, got %d", got)
	}

	m, _ = press(t, m, "down")
	m, _ = press(t, m, "right")
	if got := m.prefs.Get().MediumAlertThreshold; got != 6 {
		t.Fatalf("expected medium threshold 6, got %d", got)
	}

	m, _ = press(t, m, "esc")
	if m.settingsOpen {
		t.Fatalf("esc must close settings")
	}
}

func TestSettingsToggleNotifications(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m, _ = press(t, m, "ctrl+e")
	m.settingsCursor = settingEmail
	m, _ = press(t, m, "enter")
	if m.prefs.Get().EmailNotifications {
		t.Fatalf("email notifications should toggle off")
	}

	m.settingsCursor = settingSMS
	m, _ = press(t, m, "enter")
	if !m.prefs.Get().SMSNotifications {
		t.Fatalf("sms notifications should toggle on")
	}
}

func TestModeCycleWrapsBothDirections(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m, _ = press(t, m, "shift+tab")
	if m.mode != modeAnalytics {
		t.Fatalf("shift+tab from query must wrap to analytics, got %v", m.mode)
	}
	m, _ = press(t, m, "tab")
	if m.mode != modeQuery {
		t.Fatalf("tab from analytics must wrap to query, got %v", m.mode)
	}
}

func TestViewRendersWithoutResultData(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	if out := m.View(); !strings.Contains(out, "CareRadar") {
		t.Fatalf("expected rendered chrome, got %q", out)
	}

	m, _ = press(t, m, "tab")
	if out := m.View(); !strings.Contains(out, "Last scan: never") {
		t.Fatalf("radar view missing scan line")
	}
}
