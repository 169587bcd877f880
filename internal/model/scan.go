package model

import "time"

// MaxScanLog is the number of scan records kept in local storage.
const MaxScanLog = 50

// ScanLogRecord is one entry of the bounded local scan history.
type ScanLogRecord struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	RiskLevel RiskLevel `json:"risk_level"`
	RiskScore float64   `json:"risk_score"`
	Timestamp time.Time `json:"timestamp"`
}

// RemoteStats is the aggregate returned by the backend's /stats endpoint.
type RemoteStats struct {
	TotalScans       int64 `json:"total_scans"`
	PhishingDetected int64 `json:"phishing_detected"`
	SafeURLs         int64 `json:"safe_urls"`
	SuspiciousURLs   int64 `json:"suspicious_urls"`
}

// Stats merges remote aggregates with the local scan and blocked counts.
type Stats struct {
	RemoteStats
	LocalScans   int   `json:"localScans"`
	LocalBlocked int64 `json:"localBlocked"`

	Error   bool   `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// HistoryEntry is one row of the backend's /history listing. The backend
// writes naive local timestamps, so Timestamp is kept as sent.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	RiskLevel  RiskLevel `json:"risk_level"`
	RiskScore  float64   `json:"risk_score"`
	Confidence float64   `json:"confidence"`
	Timestamp  string    `json:"timestamp"`
	ScanTime   float64   `json:"scan_time"`
}
