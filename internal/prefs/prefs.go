// Package prefs holds the user-configurable dashboard preferences.
package prefs

import "strings"

type Preferences struct {
	HighAlertThreshold   int      `json:"highAlertThreshold"`
	MediumAlertThreshold int      `json:"mediumAlertThreshold"`
	EmailNotifications   bool     `json:"emailNotifications"`
	SMSNotifications     bool     `json:"smsNotifications"`
	AutoRefresh          bool     `json:"autoRefresh"`
	SavedQueries         []string `json:"savedQueries"`
}

func Defaults() Preferences {
	return Preferences{
		HighAlertThreshold:   3,
		MediumAlertThreshold: 5,
		EmailNotifications:   true,
		AutoRefresh:          true,
	}
}

// Update carries a partial preference change. Nil fields are left untouched.
// Saved queries never travel through the merge; they go through AddSavedQuery.
type Update struct {
	HighAlertThreshold   *int
	MediumAlertThreshold *int
	EmailNotifications   *bool
	SMSNotifications     *bool
	AutoRefresh          *bool
}

// Store owns the live preferences for one session. All mutation happens on
// the event loop, so no locking is involved.
type Store struct {
	current Preferences
}

func NewStore(initial Preferences) *Store {
	initial.SavedQueries = append([]string(nil), initial.SavedQueries...)
	return &Store{current: initial}
}

// Get returns a snapshot copy of the current preferences.
func (s *Store) Get() Preferences {
	snapshot := s.current
	snapshot.SavedQueries = append([]string(nil), s.current.SavedQueries...)
	return snapshot
}

// Apply merges a partial update and returns the resulting preferences.
func (s *Store) Apply(update Update) Preferences {
	if update.HighAlertThreshold != nil {
		s.current.HighAlertThreshold = *update.HighAlertThreshold
	}
	if update.MediumAlertThreshold != nil {
		s.current.MediumAlertThreshold = *update.MediumAlertThreshold
	}
	if update.EmailNotifications != nil {
		s.current.EmailNotifications = *update.EmailNotifications
	}
	if update.SMSNotifications != nil {
		s.current.SMSNotifications = *update.SMSNotifications
	}
	if update.AutoRefresh != nil {
		s.current.AutoRefresh = *update.AutoRefresh
	}
	return s.Get()
}

// AddSavedQuery appends a trimmed query. Empty or duplicate text is a no-op.
// The second return reports whether anything was inserted.
func (s *Store) AddSavedQuery(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}
	for _, existing := range s.current.SavedQueries {
		if existing == trimmed {
			return trimmed, false
		}
	}
	s.current.SavedQueries = append(s.current.SavedQueries, trimmed)
	return trimmed, true
}
