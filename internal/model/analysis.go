package model

import "strings"

// RiskLevel is the discrete classification of a URL.
type RiskLevel string

const (
	RiskSafe       RiskLevel = "safe"
	RiskSuspicious RiskLevel = "suspicious"
	RiskDangerous  RiskLevel = "dangerous"
	RiskUnknown    RiskLevel = "unknown"
)

// Normalize folds unrecognised levels into RiskUnknown.
func (l RiskLevel) Normalize() RiskLevel {
	switch RiskLevel(strings.ToLower(string(l))) {
	case RiskSafe:
		return RiskSafe
	case RiskSuspicious:
		return RiskSuspicious
	case RiskDangerous:
		return RiskDangerous
	default:
		return RiskUnknown
	}
}

// AnalysisRequest is built once per navigation attempt.
type AnalysisRequest struct {
	URL            string `json:"url"`
	IncludeContent bool   `json:"include_content"`
}

// AnalysisResult is the classification returned by the analysis backend, or a
// degraded stand-in synthesized when the backend cannot be reached.
type AnalysisResult struct {
	URL             string         `json:"url"`
	RiskScore       float64        `json:"risk_score"`
	RiskLevel       RiskLevel      `json:"risk_level"`
	Confidence      float64        `json:"confidence"`
	Recommendations []string       `json:"recommendations"`
	AllowAccess     bool           `json:"allow_access"`
	ScanTime        float64        `json:"scan_time"`
	Features        map[string]any `json:"features,omitempty"`

	// Error and Message are only set on degraded results.
	Error   bool   `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	// DegradedRecommendation is the single recommendation of a degraded result.
	DegradedRecommendation = "Could not connect to analysis server"

	// DegradedMessage is shown by the page when analysis failed.
	DegradedMessage = "Failed to analyze URL. Make sure backend is running on port 8000."
)

// DegradedResult is substituted when the analysis backend is unreachable or
// answers with a failure status.
func DegradedResult(url string) AnalysisResult {
	return AnalysisResult{
		URL:             url,
		RiskLevel:       RiskUnknown,
		RiskScore:       0,
		Confidence:      0,
		Recommendations: []string{DegradedRecommendation},
		AllowAccess:     false,
		Error:           true,
		Message:         DegradedMessage,
	}
}

// IsDegraded reports whether r was synthesized after a backend failure.
func (r AnalysisResult) IsDegraded() bool {
	return r.Error
}

// Clone returns a copy that shares no slices or maps with r.
func (r AnalysisResult) Clone() AnalysisResult {
	out := r
	if r.Recommendations != nil {
		out.Recommendations = append([]string(nil), r.Recommendations...)
	}
	if r.Features != nil {
		out.Features = make(map[string]any, len(r.Features))
		for k, v := range r.Features {
			out.Features[k] = v
		}
	}
	return out
}
