package model

import "time"

// Entry sources.
const (
	SourceManual  = "manual"
	SourceTimer   = "timer"
	SourceOutlook = "outlook"
)

// TimeEntry represents a single tracked span of work against a project.
// A nil End means the entry is still running.
type TimeEntry struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	ProjectID       string     `json:"project_id"`
	Task            string     `json:"task"`
	Comment         *string    `json:"comment"`
	Tags            []string   `json:"tags"`
	Start           time.Time  `json:"start"`
	End             *time.Time `json:"end"`
	DurationSeconds *int64     `json:"duration_seconds"`
	IsRunning       bool       `json:"is_running"`
	Source          string     `json:"source"`
	ExternalID      string     `json:"external_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Project groups time entries of a single user.
type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Description string    `json:"description"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
}

// Role is the access level of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an identity known to the service. Authentication itself happens at
// the external identity provider.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Default work targets used when no site settings are stored.
const (
	DefaultWorkHoursPerDay  = "07:24"
	DefaultWorkHoursPerWeek = "37:00"
)

// SiteSettings is the deployment-wide configuration managed by administrators.
type SiteSettings struct {
	WorkHoursPerDay  string    `json:"work_hours_per_day"`
	WorkHoursPerWeek string    `json:"work_hours_per_week"`
	UpdatedAt        time.Time `json:"updated_at"`
	UpdatedBy        string    `json:"updated_by,omitempty"`
}

// DefaultSiteSettings returns the documented defaults.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		WorkHoursPerDay:  DefaultWorkHoursPerDay,
		WorkHoursPerWeek: DefaultWorkHoursPerWeek,
	}
}
