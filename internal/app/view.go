package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AlyssaVMeczkowska/care-radar/internal/api"
)

var (
	chromeBG        = lipgloss.Color("#0B0712")
	panelBorder     = lipgloss.Color("#5E3A80")
	accentPrimary   = lipgloss.Color("#C792EA")
	accentSecondary = lipgloss.Color("#F6AE2D")
	mutedText       = lipgloss.Color("#9A8CAE")
	warningText     = lipgloss.Color("#FF6B6B")
	severityHighFG  = lipgloss.Color("#FF6B6B")
	severityMedFG   = lipgloss.Color("#F6AE2D")
	severityLowFG   = lipgloss.Color("#50E3C2")
)

var (
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(accentPrimary)

	subHeaderStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	statusStyle = lipgloss.NewStyle().
			Foreground(accentSecondary).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(warningText).
			Bold(true)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(accentPrimary).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(panelBorder).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(panelBorder)

	inactiveTabStyle = lipgloss.NewStyle().
				Padding(0, 2).
				Foreground(mutedText)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(accentPrimary).
				Bold(true)
)

func (m Model) View() string {
	if !m.ready {
		return "Booting careradar..."
	}

	innerWidth := maxInt(60, m.width-2)
	innerHeight := maxInt(16, m.height-2)

	header := headerStyle.Render("CareRadar") +
		subHeaderStyle.Render("  Clinical AI Command Center")

	var body string
	switch {
	case m.settingsOpen:
		body = m.renderSettings()
	case m.selectedPatient != "":
		body = m.renderPatientDetail()
	case m.mode == modeQuery:
		body = m.renderQueryMode()
	case m.mode == modeRadar:
		body = m.renderRadarMode()
	default:
		body = m.renderAnalyticsMode()
	}

	parts := []string{
		header,
		m.renderTabs(),
		m.renderStatusLine(),
		body,
		m.renderActivityPanel(),
		helpStyle.Render(m.helpLine()),
	}

	joined := strings.Join(parts, "\n")
	joined = fitTextHeight(joined, innerHeight)
	return lipgloss.NewStyle().
		Background(chromeBG).
		Foreground(lipgloss.Color("#EDE6F5")).
		Width(innerWidth).
		Height(innerHeight).
		Padding(0, 1).
		Render(joined)
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, 3)
	for _, md := range []mode{modeQuery, modeRadar, modeAnalytics} {
		label := md.String()
		if md == m.mode {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderStatusLine() string {
	if strings.TrimSpace(m.errorText) != "" {
		return errorStyle.Render(m.errorText)
	}
	prefix := "*"
	if m.querying || m.scanning || m.analyticsLoading || m.patientLoading {
		prefix = m.spinner.View()
	}
	status := strings.TrimSpace(m.statusText)
	if status == "" {
		status = "Ready"
	}
	return statusStyle.Render(prefix + " " + status)
}

func (m Model) helpLine() string {
	switch {
	case m.settingsOpen:
		return "up/down select | left/right adjust | enter toggle | esc close settings"
	case m.selectedPatient != "":
		return "esc back | tab switch mode | q quit"
	case m.mode == modeQuery:
		return "enter search | up/down select row | ctrl+o patient detail | ctrl+s save query | tab switch mode | ctrl+e settings | ctrl+c quit"
	case m.mode == modeRadar:
		return "r scan now | tab switch mode | ctrl+e settings | q quit"
	default:
		return "1-4 range (7d/30d/90d/1y) | tab switch mode | ctrl+e settings | q quit"
	}
}

func (m Model) renderQueryMode() string {
	inputPanel := renderPanel("Ask a clinical question", m.queryInput.View(), maxInt(60, m.width-6))

	if m.querying {
		return lipgloss.JoinVertical(lipgloss.Left,
			inputPanel,
			renderPanel("Results", "Analyzing patient data...", maxInt(60, m.width-6)),
		)
	}
	if m.queryResult == nil {
		hint := "No query yet."
		if saved := m.prefs.Get().SavedQueries; len(saved) > 0 {
			hint += "\n\nSaved queries:\n  " + strings.Join(saved, "\n  ")
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			inputPanel,
			renderPanel("Results", hint, maxInt(60, m.width-6)),
		)
	}

	width := maxInt(60, m.width-6)
	narrative := renderPanel("AI Analysis", m.queryResult.Narrative, width)
	table := renderPanel(
		fmt.Sprintf("Patient Results (%d)", len(m.queryResult.Results)),
		m.renderResultRows(),
		width,
	)
	sql := renderPanel("Generated SQL", truncateText(m.queryResult.SQL, 400), width)
	return lipgloss.JoinVertical(lipgloss.Left, inputPanel, narrative, table, sql)
}

func (m Model) renderResultRows() string {
	if len(m.queryResult.Results) == 0 {
		return "No matching patients."
	}
	lines := make([]string, 0, len(m.queryResult.Results)+1)
	lines = append(lines, subHeaderStyle.Render(
		fmt.Sprintf("  %-10s %-24s %5s  %-12s %s", "ID", "Name", "Age", "Last Test", "Overdue")))
	for idx, row := range m.queryResult.Results {
		name := row.Name
		if name == "" {
			name = "-"
		}
		line := fmt.Sprintf("  %-10s %-24s %5d  %-12s %s",
			row.ID, truncateText(name, 24), row.Age, row.LastTest, row.Overdue)
		if idx == m.resultCursor {
			line = selectedRowStyle.Render("▶" + line[1:])
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRadarMode() string {
	width := maxInt(60, m.width-6)

	scanLine := "Last scan: never"
	if !m.lastScanAt.IsZero() {
		scanLine = "Last scan: " + m.lastScanAt.Format("15:04:05")
	}

	var sections []string
	sections = append(sections, subHeaderStyle.Render(scanLine))

	preferences := m.prefs.Get()
	if high := countSeverity(m.alerts, api.SeverityHigh); high >= preferences.HighAlertThreshold && high > 0 {
		sections = append(sections, errorStyle.Render(
			fmt.Sprintf("⚠ %d high-severity alerts (threshold %d)", high, preferences.HighAlertThreshold)))
	} else if med := countSeverity(m.alerts, api.SeverityMedium); med >= preferences.MediumAlertThreshold && med > 0 {
		sections = append(sections, statusStyle.Render(
			fmt.Sprintf("%d medium-severity alerts (threshold %d)", med, preferences.MediumAlertThreshold)))
	}

	if len(m.alerts) == 0 {
		sections = append(sections, renderPanel("Live Clinical Radar", "No active alerts.", width))
	} else {
		cards := make([]string, 0, len(m.alerts))
		for _, alert := range m.alerts {
			cards = append(cards, renderAlertCard(alert, width))
		}
		sections = append(sections, strings.Join(cards, "\n"))
	}

	sections = append(sections, m.renderStatsCards(width))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderAlertCard(alert api.Alert, width int) string {
	title := fmt.Sprintf("%s %s  %s", severityBadge(alert.Severity), alert.Title, alert.Change)
	lines := []string{alert.Metric}
	if alert.Action != "" {
		lines = append(lines, subHeaderStyle.Render("Action: "+alert.Action+"   "+alert.Timestamp))
	}
	return renderPanel(title, strings.Join(lines, "\n"), width)
}

func severityBadge(severity string) string {
	switch severity {
	case api.SeverityHigh:
		return lipgloss.NewStyle().Foreground(severityHighFG).Bold(true).Render("HIGH")
	case api.SeverityMedium:
		return lipgloss.NewStyle().Foreground(severityMedFG).Bold(true).Render("MED ")
	case api.SeverityLow:
		return lipgloss.NewStyle().Foreground(severityLowFG).Bold(true).Render("LOW ")
	}
	return strings.ToUpper(severity)
}

func countSeverity(alerts []api.Alert, severity string) int {
	count := 0
	for _, alert := range alerts {
		if alert.Severity == severity {
			count++
		}
	}
	return count
}

func (m Model) renderStatsCards(width int) string {
	cardWidth := maxInt(18, (width-6)/3)
	cards := []string{
		renderPanel("Active Alerts", fmt.Sprintf("%d", m.metrics.ActiveAlerts), cardWidth),
		renderPanel("Patients Monitored", formatCount(m.metrics.PatientsMonitored), cardWidth),
		renderPanel("Avg Response Time", formatMillis(m.metrics.AvgResponseTime), cardWidth),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func formatCount(n int) string {
	if n <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

func formatMillis(ms float64) string {
	if ms <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f ms", ms)
}

func (m Model) renderAnalyticsMode() string {
	width := maxInt(60, m.width-6)

	rangeLine := make([]string, 0, len(api.AnalyticsRanges))
	for idx, window := range api.AnalyticsRanges {
		label := fmt.Sprintf("%d:%s", idx+1, window)
		if window == m.analyticsRange {
			label = selectedRowStyle.Render(label)
		}
		rangeLine = append(rangeLine, label)
	}
	header := subHeaderStyle.Render("Range: ") + strings.Join(rangeLine, "  ")

	if m.analyticsLoading {
		return lipgloss.JoinVertical(lipgloss.Left, header,
			renderPanel("Analytics", "Loading analytics...", width))
	}
	if m.analytics == nil {
		return lipgloss.JoinVertical(lipgloss.Left, header,
			renderPanel("Analytics", "No analytics loaded.", width))
	}

	volume := make([]string, 0, len(m.analytics.VolumeData))
	for _, point := range m.analytics.VolumeData {
		volume = append(volume, fmt.Sprintf("%-10s %s %d encounters / %d admissions",
			point.Date, renderMeter(point.Encounters, 120, 24), point.Encounters, point.Admissions))
	}
	conditions := make([]string, 0, len(m.analytics.ConditionsData))
	for _, c := range m.analytics.ConditionsData {
		conditions = append(conditions, fmt.Sprintf("%-28s %d", truncateText(c.Condition, 28), c.Count))
	}
	encounters := make([]string, 0, len(m.analytics.EncounterTypesData))
	for _, e := range m.analytics.EncounterTypesData {
		encounters = append(encounters, fmt.Sprintf("%-28s %d", truncateText(e.Name, 28), e.Value))
	}
	complaints := make([]string, 0, len(m.analytics.ComplaintsData))
	for _, c := range m.analytics.ComplaintsData {
		complaints = append(complaints, fmt.Sprintf("%-28s %d", truncateText(c.Complaint, 28), c.Count))
	}

	half := maxInt(28, (width-4)/2)
	top := renderPanel(fmt.Sprintf("Encounter Volume (total patients: %d)", m.analytics.TotalPatients),
		orPlaceholder(volume), width)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		renderPanel("Top Conditions", orPlaceholder(conditions), half),
		renderPanel("Encounter Types", orPlaceholder(encounters), half),
	)
	complaintsPanel := renderPanel("Top Chief Complaints", orPlaceholder(complaints), width)
	return lipgloss.JoinVertical(lipgloss.Left, header, top, bottom, complaintsPanel)
}

func orPlaceholder(lines []string) string {
	if len(lines) == 0 {
		return "No data."
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPatientDetail() string {
	width := maxInt(60, m.width-6)

	if m.patientLoading || m.patient == nil {
		body := "Loading patient profile..."
		if !m.patientLoading {
			body = "Patient profile unavailable."
		}
		return renderPanel("Patient "+m.selectedPatient, body, width)
	}

	p := m.patient
	identity := []string{
		fmt.Sprintf("%s (%s)  Age %d  %s  DOB %s", p.Name, p.MRN, p.Age, p.Gender, p.DOB),
		subHeaderStyle.Render(p.Phone + "  " + p.Email),
		subHeaderStyle.Render(p.Address),
		subHeaderStyle.Render("Primary care: " + p.PrimaryCare),
		"",
		fmt.Sprintf("Risk score %s %d/100", renderMeter(p.RiskScore, 100, 20), p.RiskScore),
		"Conditions: " + strings.Join(p.Conditions, ", "),
		"Allergies:  " + strings.Join(p.Allergies, ", "),
	}

	gaps := make([]string, 0, len(p.CareGaps))
	for _, gap := range p.CareGaps {
		status := gap.Status
		if gap.Status == "overdue" {
			status = errorStyle.Render(fmt.Sprintf("overdue %d days", gap.OverdueDays))
		}
		gaps = append(gaps, fmt.Sprintf("%-20s %-10s due %s", truncateText(gap.Type, 20), status, gap.DueDate))
	}

	timeline := make([]string, 0, len(p.Timeline))
	for _, event := range p.Timeline {
		timeline = append(timeline, fmt.Sprintf("%s  %-14s %s", event.Date, truncateText(event.Type, 14),
			truncateText(event.Description, maxInt(20, width-32))))
	}

	half := maxInt(28, (width-4)/2)
	return lipgloss.JoinVertical(lipgloss.Left,
		renderPanel("Patient "+p.ID, strings.Join(identity, "\n"), width),
		renderPanel("AI Summary", p.AISummary, width),
		lipgloss.JoinHorizontal(lipgloss.Top,
			renderPanel("Care Gaps", orPlaceholder(gaps), half),
			renderPanel("Timeline", orPlaceholder(timeline), half),
		),
	)
}

func (m Model) renderSettings() string {
	preferences := m.prefs.Get()
	items := []struct {
		label string
		value string
	}{
		{"High alert threshold", fmt.Sprintf("%d", preferences.HighAlertThreshold)},
		{"Medium alert threshold", fmt.Sprintf("%d", preferences.MediumAlertThreshold)},
		{"Email notifications", onOff(preferences.EmailNotifications)},
		{"SMS notifications", onOff(preferences.SMSNotifications)},
		{"Auto refresh (radar)", onOff(preferences.AutoRefresh)},
		{"Save current query", fmt.Sprintf("%d saved", len(preferences.SavedQueries))},
	}

	lines := make([]string, 0, len(items)+2)
	for idx, item := range items {
		line := fmt.Sprintf("  %-24s %s", item.label, item.value)
		if idx == m.settingsCursor {
			line = selectedRowStyle.Render("▶" + line[1:])
		}
		lines = append(lines, line)
	}
	if len(preferences.SavedQueries) > 0 {
		lines = append(lines, "", subHeaderStyle.Render("Saved queries:"))
		for _, saved := range preferences.SavedQueries {
			lines = append(lines, subHeaderStyle.Render("  "+saved))
		}
	}
	return renderPanel("Settings", strings.Join(lines, "\n"), maxInt(50, m.width-6))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (m Model) renderActivityPanel() string {
	entries := m.activity.List()
	if len(entries) == 0 {
		return renderPanel("Recent Activity", subHeaderStyle.Render("Nothing yet."), maxInt(50, m.width-6))
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("%s  %-5s %s",
			entry.Timestamp.Format("15:04:05"), entry.Kind, entry.Description))
	}
	return renderPanel("Recent Activity", strings.Join(lines, "\n"), maxInt(50, m.width-6))
}

func renderPanel(title, body string, width int) string {
	content := panelTitleStyle.Render(title) + "\n" + body
	return panelStyle.Width(maxInt(20, width)).Render(content)
}

func renderMeter(value, scale, width int) string {
	if scale <= 0 {
		scale = 1
	}
	filled := value * width / scale
	filled = clampInt(filled, 0, width)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func truncateText(raw string, maxLen int) string {
	if maxLen <= 3 || len(raw) <= maxLen {
		return raw
	}
	return raw[:maxLen-3] + "..."
}

func fitTextHeight(text string, height int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= height {
		return text
	}
	return strings.Join(lines[:height], "\n")
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
