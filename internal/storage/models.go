package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness constraint is violated
// (e.g. creating a site with an existing site code).
var ErrDuplicate = errors.New("duplicate")

// Conversation is the durable record of one expert-chat session.
type Conversation struct {
	ID          string                `json:"id"`
	SessionKey  string                `json:"sessionKey"`
	UserID      string                `json:"userId"`
	PersonaID   string                `json:"personaId"`
	ContextJSON string                `json:"context"`
	Status      string                `json:"status"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	Messages    []ConversationMessage `json:"messages,omitempty"`
}

// ConversationMessage is one persisted transcript entry.
type ConversationMessage struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	Tokens    int       `json:"tokens,omitempty"`
	LatencyMs int64     `json:"latencyMs,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Site is a monitoring site record.
type Site struct {
	ID           string    `json:"id"`
	SiteCode     string    `json:"siteCode"`
	Name         string    `json:"name"`
	Type         string    `json:"type,omitempty"`
	Province     string    `json:"province,omitempty"`
	City         string    `json:"city,omitempty"`
	District     string    `json:"district,omitempty"`
	Address      string    `json:"address,omitempty"`
	Lat          *float64  `json:"lat,omitempty"`
	Lng          *float64  `json:"lng,omitempty"`
	ContactName  string    `json:"contactName,omitempty"`
	ContactPhone string    `json:"contactPhone,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Alert is a surveillance alert record.
type Alert struct {
	ID          string     `json:"id"`
	SiteID      string     `json:"siteId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// AlertStats aggregates alerts by status and severity.
type AlertStats struct {
	OpenCount         int            `json:"openCount"`
	AcknowledgedCount int            `json:"acknowledgedCount"`
	ResolvedCount     int            `json:"resolvedCount"`
	BySeverity        map[string]int `json:"bySeverity"`
}

// Report is a persisted surveillance report document: daily/weekly/monthly
// digests and industry briefs, written by an operator or generated by an
// expert agent.
type Report struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	ReportType     string    `json:"reportType"`
	Summary        string    `json:"summary,omitempty"`
	Content        string    `json:"content,omitempty"`
	DataRangeStart string    `json:"dataRangeStart,omitempty"`
	DataRangeEnd   string    `json:"dataRangeEnd,omitempty"`
	AIGenerated    bool      `json:"aiGenerated"`
	GeneratedBy    string    `json:"generatedBy,omitempty"`
	FileURL        string    `json:"fileUrl,omitempty"`
	ViewCount      int       `json:"viewCount"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ReportPage is one page of a report listing.
type ReportPage struct {
	Reports    []Report `json:"reports"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"totalPages"`
}

// MonitoringData is one measurement taken at a site.
type MonitoringData struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"siteId"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	SampledAt time.Time `json:"sampledAt"`
	CreatedAt time.Time `json:"createdAt"`
}
