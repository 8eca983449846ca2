package models

import "time"

// AuditLogEntry is one immutable record of an administrative action.
type AuditLogEntry struct {
	ID           int64                  `json:"id"`
	AdminID      string                 `json:"admin_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Details      map[string]interface{} `json:"details,omitempty"`
	Success      bool                   `json:"success"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

// AuditQuery filters audit log listings.
type AuditQuery struct {
	AdminID      string
	Action       string
	ResourceType string
	ResourceID   string
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
}

// SuspiciousActivity is one (admin, ip) group flagged by the activity heuristic.
type SuspiciousActivity struct {
	AdminID       string    `json:"admin_id"`
	IPAddress     string    `json:"ip_address"`
	TotalActions  int       `json:"total_actions"`
	FailedActions int       `json:"failed_actions"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
}
