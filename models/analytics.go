package models

import "time"

// ReportStats summarizes report volume and resolution latency over a window.
type ReportStats struct {
	Total                int64          `json:"total"`
	ByStatus             map[string]int `json:"by_status"`
	Resolved             int64          `json:"resolved"`
	AvgResolutionSeconds float64        `json:"avg_resolution_seconds"`
}

// ContentStats summarizes moderation records by status over a window.
type ContentStats struct {
	Total       int64          `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	Quarantined int64          `json:"quarantined"`
	Escalated   int64          `json:"escalated"`
}

// AdminActivity is one admin's action volume in the window.
type AdminActivity struct {
	AdminID       string `json:"admin_id"`
	Actions       int64  `json:"actions"`
	FailedActions int64  `json:"failed_actions"`
}

// ReportTypeCount is one entry of the top report types listing.
type ReportTypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// StatsSummary is the headline numbers of an analytics window.
type StatsSummary struct {
	PeriodDays    int       `json:"period_days"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	TotalReports  int64     `json:"total_reports"`
	TotalActioned int64     `json:"total_actioned"`
}

// Stats is the full analytics payload for one period.
type Stats struct {
	ReportStats    ReportStats       `json:"report_stats"`
	ContentStats   ContentStats      `json:"content_stats"`
	AdminActivity  []AdminActivity   `json:"admin_activity"`
	TopReportTypes []ReportTypeCount `json:"top_report_types"`
	Summary        StatsSummary      `json:"summary"`
}
