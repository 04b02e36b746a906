package models

import "time"

// GlobalStatsID is the fixed identifier of the single GlobalStats row.
const GlobalStatsID = "global-stats-1"

// GlobalStats is the single-row denormalized snapshot of totals across all
// audits. The row is fully overwritten on every recompute, never
// incrementally patched.
type GlobalStats struct {
	ID                        string    `json:"-" gorm:"primaryKey"`
	TotalAudits               int       `json:"totalAudits" gorm:"column:total_audits"`
	TotalVulnerabilities      int       `json:"totalVulnerabilities" gorm:"column:total_vulnerabilities"`
	TotalVulnerabilitiesFixed int       `json:"totalVulnerabilitiesFixed" gorm:"column:total_vulnerabilities_fixed"`
	AverageSecurityScore      float64   `json:"averageSecurityScore" gorm:"column:average_security_score"`
	TotalContractsScanned     int       `json:"totalContractsScanned" gorm:"column:total_contracts_scanned"`
	CriticalVulns             int       `json:"-" gorm:"column:critical_vulns"`
	HighVulns                 int       `json:"-" gorm:"column:high_vulns"`
	MediumVulns               int       `json:"-" gorm:"column:medium_vulns"`
	LowVulns                  int       `json:"-" gorm:"column:low_vulns"`
	InformationalVulns        int       `json:"-" gorm:"column:informational_vulns"`
	UpdatedAt                 time.Time `json:"-" gorm:"column:updated_at"`
}

// TableName specifies the table name for GlobalStats
func (GlobalStats) TableName() string {
	return "global_stats"
}

// VulnerabilityBreakdown returns the per-severity totals of the snapshot.
func (g *GlobalStats) VulnerabilityBreakdown() IssueCounts {
	return IssueCounts{
		Critical:      g.CriticalVulns,
		High:          g.HighVulns,
		Medium:        g.MediumVulns,
		Low:           g.LowVulns,
		Informational: g.InformationalVulns,
	}
}

// VulnerabilityType is an analytics row naming a vulnerability category with
// a running count. It is populated by the seed command and read-only from
// the aggregation paths.
type VulnerabilityType struct {
	ID       uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	Name     string `json:"name" gorm:"column:name;uniqueIndex;not null"`
	Count    int    `json:"count" gorm:"column:count"`
	Severity string `json:"severity" gorm:"column:severity"`
	Category string `json:"category" gorm:"column:category"`
}

// TableName specifies the table name for VulnerabilityType
func (VulnerabilityType) TableName() string {
	return "vulnerability_types"
}
