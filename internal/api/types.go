package api

// Alert is one backend-flagged anomaly in population-level metrics. Alerts
// are immutable once received; each successful poll replaces the whole set.
type Alert struct {
	ID        int64  `json:"id"`
	Severity  string `json:"severity"`
	Emoji     string `json:"emoji"`
	Title     string `json:"title"`
	Metric    string `json:"metric"`
	Change    string `json:"change"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

type Metrics struct {
	ActiveAlerts      int     `json:"activeAlerts"`
	PatientsMonitored int     `json:"patientsMonitored"`
	AvgResponseTime   float64 `json:"avgResponseTime"`
}

// AlertFeed is the result of one radar scan.
type AlertFeed struct {
	Alerts   []Alert
	Metrics  Metrics
	LastScan string
}

type PatientRow struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Age      int    `json:"age"`
	LastTest string `json:"lastTest"`
	Overdue  string `json:"overdue"`
}

type QueryResult struct {
	SQL           string       `json:"sql"`
	Results       []PatientRow `json:"results"`
	Narrative     string       `json:"narrative"`
	ExecutionTime float64      `json:"executionTime"`
}

type VolumePoint struct {
	Date       string `json:"date"`
	Encounters int    `json:"encounters"`
	Admissions int    `json:"admissions"`
}

type ConditionCount struct {
	Condition string `json:"condition"`
	Count     int    `json:"count"`
}

type EncounterTypeCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type ComplaintCount struct {
	Complaint string `json:"complaint"`
	Count     int    `json:"count"`
}

type AnalyticsReport struct {
	TotalPatients      int                  `json:"totalPatients"`
	VolumeData         []VolumePoint        `json:"volumeData"`
	ConditionsData     []ConditionCount     `json:"conditionsData"`
	EncounterTypesData []EncounterTypeCount `json:"encounterTypesData"`
	ComplaintsData     []ComplaintCount     `json:"complaintsData"`
}

type CareGap struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	DueDate     string `json:"dueDate"`
	OverdueDays int    `json:"overdueDays"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

type TimelineEvent struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Provider    string `json:"provider"`
	Status      string `json:"status"`
}

type PatientProfile struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Age         int             `json:"age"`
	MRN         string          `json:"mrn"`
	Gender      string          `json:"gender"`
	DOB         string          `json:"dob"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
	PrimaryCare string          `json:"primaryCare"`
	RiskScore   int             `json:"riskScore"`
	Conditions  []string        `json:"conditions"`
	Allergies   []string        `json:"allergies"`
	CareGaps    []CareGap       `json:"careGaps"`
	Timeline    []TimelineEvent `json:"timeline"`
	AISummary   string          `json:"aiSummary"`
}
