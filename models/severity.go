package models

// The five severity buckets recognized by the issue counters. Matching is
// by exact literal: any other label, including different casing, is counted
// in no bucket.
const (
	SeverityCritical      = "Critical"
	SeverityHigh          = "High"
	SeverityMedium        = "Medium"
	SeverityLow           = "Low"
	SeverityInformational = "Informational"
)

// IssueCounts holds the five severity-bucket counts denormalized onto an
// Audit at write time.
type IssueCounts struct {
	Critical      int `json:"critical"`
	High          int `json:"high"`
	Medium        int `json:"medium"`
	Low           int `json:"low"`
	Informational int `json:"info"`
}

// Total returns the sum across all five buckets.
func (c IssueCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Informational
}

// CountIssues buckets vulnerabilities by their severity label.
func CountIssues(vulns []Vulnerability) IssueCounts {
	var c IssueCounts
	for _, v := range vulns {
		switch v.Severity {
		case SeverityCritical:
			c.Critical++
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		case SeverityLow:
			c.Low++
		case SeverityInformational:
			c.Informational++
		}
	}
	return c
}
