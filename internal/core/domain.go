package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500

	DefaultTemporalDays = 30
	MaxTemporalDays     = 365
)

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type (
	Role string

	Money struct {
		Cents int64
	}

	// User is an account as listed by the admin users endpoint.
	User struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		Role      Role      `json:"role"`
		CreatedAt time.Time `json:"created_at"`
		IsActive  bool      `json:"is_active"`
	}

	UsersPage struct {
		Users []User `json:"users"`
		Total int    `json:"total"`
		Skip  int    `json:"skip"`
		Limit int    `json:"limit"`
	}

	// PageRequest selects a window of a paginated listing.
	PageRequest struct {
		Skip  int
		Limit int
	}

	RegionalStat struct {
		Region             string  `json:"region"`
		AverageHealthScore float64 `json:"average_health_score"`
		TotalLeaks         int     `json:"total_leaks"`
		TotalUsers         int     `json:"total_users"`
		TopLeakType        string  `json:"top_leak_type"`
	}

	OverviewStats struct {
		TotalUsers              int     `json:"total_users"`
		ActiveUsers             int     `json:"active_users"`
		TotalLinkedAccounts     int     `json:"total_linked_accounts"`
		TotalTransactions       int     `json:"total_transactions"`
		TotalAnalyses           int     `json:"total_analyses"`
		AverageHealthScore      float64 `json:"average_health_score"`
		TotalFrozenItems        int     `json:"total_frozen_items"`
		TotalCapitalProtected   float64 `json:"total_capital_protected"`
		ActiveConsents          int     `json:"active_consents"`
		MLAnomaliesDetected     int     `json:"ml_anomalies_detected"`
		MailboxEffectPrevalence float64 `json:"mailbox_effect_prevalence"`
		AvgInclusionScore       float64 `json:"avg_inclusion_score"`
		RetailWealthUnlock      float64 `json:"retail_wealth_unlock"`
		AvgInclusionDelta       float64 `json:"avg_inclusion_delta"`
		TotalRetailVelocity     float64 `json:"total_retail_velocity"`
	}

	TemporalPoint struct {
		Date         string  `json:"date"`
		AverageScore float64 `json:"average_score"`
		Count        int     `json:"count"`
	}

	TemporalStats struct {
		PeriodDays    int             `json:"period_days"`
		StartDate     string          `json:"start_date"`
		EndDate       string          `json:"end_date"`
		TotalAnalyses int             `json:"total_analyses"`
		TemporalData  []TemporalPoint `json:"temporal_data"`
	}

	Leak struct {
		Type      string  `json:"type"`
		Severity  string  `json:"severity"`
		Impact    float64 `json:"impact"`
		NameXhosa string  `json:"name_xhosa"`
	}

	// ForensicEntry is one analysis in the admin forensic feed.
	ForensicEntry struct {
		ID               string    `json:"id"`
		UserID           string    `json:"user_id"`
		Username         string    `json:"username"`
		Score            float64   `json:"score"`
		Band             string    `json:"band"`
		CreatedAt        time.Time `json:"created_at"`
		TransactionCount int       `json:"transaction_count"`
		Leaks            []Leak    `json:"leaks"`
		InclusionDelta   float64   `json:"inclusion_delta"`
		RetailVelocity   float64   `json:"retail_velocity"`
		Summary          string    `json:"summary"`
	}

	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	AuthResponse struct {
		AccessToken string `json:"access_token"`
		UserID      string `json:"user_id"`
		Email       string `json:"email"`
		Role        Role   `json:"role"`
	}

	Me struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		Role      Role      `json:"role"`
		CreatedAt time.Time `json:"created_at"`
	}

	StatusMessage struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidPage     = errors.New("invalid page")
	ErrInvalidDays     = errors.New("invalid day range")
	ErrEmptyEmail      = errors.New("empty email")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrShortPassword   = errors.New("password too short (min 8 characters)")
	ErrEmptyRegionName = errors.New("empty region name")
)

// Validate checks the window bounds.
func (p PageRequest) Validate() error {
	if p.Skip < 0 {
		return fmt.Errorf("%w: skip must not be negative", ErrInvalidPage)
	}
	if p.Limit < 1 || p.Limit > MaxPageLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidPage, MaxPageLimit)
	}
	return nil
}

// First reports whether p is the first page.
func (p PageRequest) First() bool {
	return p.Skip == 0
}

// ValidateDays checks a temporal stats window.
func ValidateDays(days int) error {
	if days < 1 || days > MaxTemporalDays {
		return fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidDays, MaxTemporalDays)
	}
	return nil
}

func (c Credentials) Validate() error {
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return ErrEmptyEmail
	}
	at := strings.IndexByte(email, '@')
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return ErrInvalidEmail
	}
	if len(c.Password) < 8 {
		return ErrShortPassword
	}
	return nil
}

func (r RegionalStat) Validate() error {
	if strings.TrimSpace(r.Region) == "" {
		return ErrEmptyRegionName
	}
	return nil
}

// Admin reports whether the role has dashboard access.
func (r Role) Admin() bool {
	return r == RoleAdmin
}
