package jobs

import (
	"strings"
	"time"
)

// Candidate aggregates everything the pipeline knows about a user.
type Candidate struct {
	UserID      string      `json:"user_id" mapstructure:"user-id"`
	Profile     Profile     `json:"profile" mapstructure:"profile"`
	Resumes     []Resume    `json:"resumes" mapstructure:"resumes"`
	Preferences Preferences `json:"preferences" mapstructure:"preferences"`
}

type Profile struct {
	FullName          string `json:"full_name,omitempty" mapstructure:"full-name"`
	Email             string `json:"email,omitempty" mapstructure:"email"`
	Phone             string `json:"phone,omitempty" mapstructure:"phone"`
	GraduationDate    string `json:"graduation_date,omitempty" mapstructure:"graduation-date"`
	WorkAuthorization string `json:"work_authorization,omitempty" mapstructure:"work-authorization"`
	Gender            string `json:"gender,omitempty" mapstructure:"gender"`
	Race              string `json:"race,omitempty" mapstructure:"race"`
	OtherInfo         string `json:"other_info,omitempty" mapstructure:"other-info"`
}

type Resume struct {
	ID        string    `json:"id"`
	Text      string    `json:"text" mapstructure:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Preferences struct {
	Roles             []string `json:"roles" mapstructure:"roles"`
	Locations         []string `json:"locations" mapstructure:"locations"`
	Keywords          []string `json:"keywords" mapstructure:"keywords"`
	AvoidKeywords     []string `json:"avoid_keywords" mapstructure:"avoid-keywords"`
	RemoteOK          bool     `json:"remote_ok" mapstructure:"remote-ok"`
	SponsorshipNeeded bool     `json:"sponsorship_needed" mapstructure:"sponsorship-needed"`
	MinSalary         int      `json:"min_salary,omitempty" mapstructure:"min-salary"`
}

// ResumeText returns the most recent non-empty resume text.
func (c *Candidate) ResumeText() string {
	if c == nil {
		return ""
	}
	var (
		latest string
		at     time.Time
		found  bool
	)
	for _, r := range c.Resumes {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		if !found || r.CreatedAt.After(at) {
			latest, at, found = text, r.CreatedAt, true
		}
	}
	return latest
}

// HasRoles reports whether at least one non-blank target role is declared.
func (p Preferences) HasRoles() bool {
	for _, r := range p.Roles {
		if strings.TrimSpace(r) != "" {
			return true
		}
	}
	return false
}
