package store

import (
	"github.com/chainproof/chainaudit/models"
	"github.com/samber/lo"
)

// VulnerabilityInput is one finding in a create or full-replace request.
type VulnerabilityInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	Confidence  int    `json:"confidence"`
	Fixed       bool   `json:"fixed"`
}

// InsightInput is one AI insight in a create or full-replace request.
type InsightInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Confidence  int    `json:"confidence"`
	Location    string `json:"location"`
	Category    string `json:"category"`
}

// MetricsInput carries the quality scores for the single metrics row.
// SecurityScore is a pointer so that an absent field can default to the
// audit score on create.
type MetricsInput struct {
	CodeCoverage    int  `json:"codeCoverage"`
	TestCoverage    int  `json:"testCoverage"`
	Documentation   int  `json:"documentation"`
	BestPractices   int  `json:"bestPractices"`
	GasOptimization int  `json:"gasOptimization"`
	SecurityScore   *int `json:"securityScore"`
}

// CreateAuditInput is the payload for Store.CreateAudit.
type CreateAuditInput struct {
	ContractName    string               `json:"contractName"`
	ContractAddress string               `json:"contractAddress"`
	TransactionHash string               `json:"transactionHash"`
	WalletAddress   string               `json:"walletAddress"`
	Score           int                  `json:"score"`
	Status          string               `json:"status"`
	ScanDuration    string               `json:"scanDuration"`
	Report          string               `json:"report"`
	Vulnerabilities []VulnerabilityInput `json:"vulnerabilities"`
	AiInsights      []InsightInput       `json:"aiInsights"`
	Metrics         *MetricsInput        `json:"metrics"`
}

// UpdateAuditInput is the payload for Store.UpdateAudit. Nil slices mean
// "not provided"; a non-nil empty slice replaces the collection with
// nothing.
type UpdateAuditInput struct {
	Score           *int                  `json:"score"`
	Status          string                `json:"status"`
	ScanDuration    string                `json:"scanDuration"`
	Vulnerabilities *[]VulnerabilityInput `json:"vulnerabilities"`
	AiInsights      *[]InsightInput       `json:"aiInsights"`
	Metrics         *MetricsInput         `json:"metrics"`
}

func vulnerabilityModels(inputs []VulnerabilityInput) []models.Vulnerability {
	return lo.Map(inputs, func(in VulnerabilityInput, _ int) models.Vulnerability {
		return models.Vulnerability{
			Name:        in.Name,
			Description: in.Description,
			Severity:    in.Severity,
			Location:    in.Location,
			Category:    in.Category,
			Confidence:  in.Confidence,
			Fixed:       in.Fixed,
		}
	})
}

func insightModels(inputs []InsightInput) []models.AiInsight {
	return lo.Map(inputs, func(in InsightInput, _ int) models.AiInsight {
		return models.AiInsight{
			Title:       in.Title,
			Description: in.Description,
			Severity:    in.Severity,
			Confidence:  in.Confidence,
			Location:    in.Location,
			Category:    in.Category,
		}
	})
}

func metricsModel(in *MetricsInput, fallbackScore int) *models.AuditMetrics {
	if in == nil {
		return nil
	}
	securityScore := fallbackScore
	if in.SecurityScore != nil {
		securityScore = *in.SecurityScore
	}
	return &models.AuditMetrics{
		CodeCoverage:    in.CodeCoverage,
		TestCoverage:    in.TestCoverage,
		Documentation:   in.Documentation,
		BestPractices:   in.BestPractices,
		GasOptimization: in.GasOptimization,
		SecurityScore:   securityScore,
	}
}
