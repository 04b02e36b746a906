package models

import "time"

// Audit is one security-scan record for a smart contract submission. The
// transaction hash is unique across all audits; a duplicate submission is
// rejected. The five issue counters are denormalized from the Vulnerability
// collection at write time, every write path that replaces vulnerabilities
// recomputes them in the same transaction.
type Audit struct {
	ID              string `json:"id" gorm:"primaryKey"`
	ContractName    string `json:"contractName" gorm:"column:contract_name;not null"`
	ContractAddress string `json:"contractAddress" gorm:"column:contract_address;not null"`
	TransactionHash string `json:"transactionHash" gorm:"column:transaction_hash;uniqueIndex;not null"`

	UserID uint  `json:"-" gorm:"column:user_id;not null;index"`
	User   *User `json:"user,omitempty" gorm:"foreignKey:UserID"`

	// Score is conventionally 0-100, not clamped by the data layer.
	Score        int    `json:"score" gorm:"column:score"`
	Status       string `json:"status" gorm:"column:status"`
	ScanDuration string `json:"scanDuration" gorm:"column:scan_duration"`
	Report       string `json:"report" gorm:"column:report"`

	CriticalIssues      int `json:"criticalIssues" gorm:"column:critical_issues"`
	HighIssues          int `json:"highIssues" gorm:"column:high_issues"`
	MediumIssues        int `json:"mediumIssues" gorm:"column:medium_issues"`
	LowIssues           int `json:"lowIssues" gorm:"column:low_issues"`
	InformationalIssues int `json:"informationalIssues" gorm:"column:informational_issues"`

	Vulnerabilities []Vulnerability `json:"vulnerabilities" gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE"`
	AiInsights      []AiInsight     `json:"aiInsights" gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE"`
	Metrics         *AuditMetrics   `json:"metrics,omitempty" gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at;index"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

// TableName specifies the table name for Audit
func (Audit) TableName() string {
	return "audits"
}

// Issues returns the denormalized counters stored on the audit.
func (a *Audit) Issues() IssueCounts {
	return IssueCounts{
		Critical:      a.CriticalIssues,
		High:          a.HighIssues,
		Medium:        a.MediumIssues,
		Low:           a.LowIssues,
		Informational: a.InformationalIssues,
	}
}

// SetIssues writes c into the five counter columns.
func (a *Audit) SetIssues(c IssueCounts) {
	a.CriticalIssues = c.Critical
	a.HighIssues = c.High
	a.MediumIssues = c.Medium
	a.LowIssues = c.Low
	a.InformationalIssues = c.Informational
}

// Vulnerability is a single finding on an Audit. Severity is free text at
// the data layer; only the five exact literals are counted into buckets.
type Vulnerability struct {
	ID          uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	AuditID     string `json:"-" gorm:"column:audit_id;not null;index"`
	Name        string `json:"name" gorm:"column:name"`
	Description string `json:"description" gorm:"column:description"`
	Severity    string `json:"severity" gorm:"column:severity;index"`
	Location    string `json:"location" gorm:"column:location"`
	Category    string `json:"category" gorm:"column:category"`
	// Confidence is the AI confidence score, 0-100.
	Confidence int       `json:"confidence" gorm:"column:confidence"`
	Fixed      bool      `json:"fixed" gorm:"column:fixed"`
	CreatedAt  time.Time `json:"createdAt" gorm:"column:created_at"`
}

// TableName specifies the table name for Vulnerability
func (Vulnerability) TableName() string {
	return "vulnerabilities"
}

// AiInsight is an AI-generated observation attached to an Audit. Duplicates
// are permitted.
type AiInsight struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	AuditID     string    `json:"-" gorm:"column:audit_id;not null;index"`
	Title       string    `json:"title" gorm:"column:title"`
	Description string    `json:"description" gorm:"column:description"`
	Severity    string    `json:"severity" gorm:"column:severity"`
	Confidence  int       `json:"confidence" gorm:"column:confidence"`
	Location    string    `json:"location" gorm:"column:location"`
	Category    string    `json:"category" gorm:"column:category"`
	CreatedAt   time.Time `json:"createdAt" gorm:"column:created_at"`
}

// TableName specifies the table name for AiInsight
func (AiInsight) TableName() string {
	return "ai_insights"
}

// AuditMetrics holds the percentage-like quality scores for an audit, at
// most one row per Audit.
type AuditMetrics struct {
	ID              uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	AuditID         string `json:"-" gorm:"column:audit_id;uniqueIndex;not null"`
	CodeCoverage    int    `json:"codeCoverage" gorm:"column:code_coverage"`
	TestCoverage    int    `json:"testCoverage" gorm:"column:test_coverage"`
	Documentation   int    `json:"documentation" gorm:"column:documentation"`
	BestPractices   int    `json:"bestPractices" gorm:"column:best_practices"`
	GasOptimization int    `json:"gasOptimization" gorm:"column:gas_optimization"`
	SecurityScore   int    `json:"securityScore" gorm:"column:security_score"`
}

// TableName specifies the table name for AuditMetrics
func (AuditMetrics) TableName() string {
	return "audit_metrics"
}
