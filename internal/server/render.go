package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/chainproof/chainaudit/internal/store"
	"github.com/chainproof/chainaudit/models"
)

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// writeError maps store errors onto the HTTP taxonomy. Unexpected failures
// get a generic body; detail stays in the server log.
func writeError(w http.ResponseWriter, err error, notFoundMsg, fallback string) {
	switch {
	case errors.Is(err, store.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrDuplicateTransaction):
		respondError(w, http.StatusConflict, "Audit with this transaction hash already exists")
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, notFoundMsg)
	default:
		logger.Errorf("%s: %v", fallback, err)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

// auditResponse is the wire shape of a fully hydrated audit.
type auditResponse struct {
	ID              string                 `json:"id"`
	ContractName    string                 `json:"contractName"`
	ContractAddress string                 `json:"contractAddress"`
	TransactionHash string                 `json:"transactionHash"`
	WalletAddress   string                 `json:"walletAddress"`
	Timestamp       time.Time              `json:"timestamp"`
	Score           int                    `json:"score"`
	Status          string                 `json:"status"`
	ScanDuration    string                 `json:"scanDuration"`
	Report          string                 `json:"report"`
	Issues          models.IssueCounts     `json:"issues"`
	Vulnerabilities []models.Vulnerability `json:"vulnerabilities"`
	AiInsights      []models.AiInsight     `json:"aiInsights"`
	Metrics         *models.AuditMetrics   `json:"metrics"`
}

func formatAudit(a models.Audit) auditResponse {
	wallet := ""
	if a.User != nil {
		wallet = a.User.WalletAddress
	}
	return auditResponse{
		ID:              a.ID,
		ContractName:    a.ContractName,
		ContractAddress: a.ContractAddress,
		TransactionHash: a.TransactionHash,
		WalletAddress:   wallet,
		Timestamp:       a.CreatedAt,
		Score:           a.Score,
		Status:          a.Status,
		ScanDuration:    a.ScanDuration,
		Report:          a.Report,
		Issues:          a.Issues(),
		Vulnerabilities: a.Vulnerabilities,
		AiInsights:      a.AiInsights,
		Metrics:         a.Metrics,
	}
}

func formatAudits(audits []models.Audit) []auditResponse {
	return lo.Map(audits, func(a models.Audit, _ int) auditResponse {
		return formatAudit(a)
	})
}

// activityEntry is the compact audit shape used in activity and
// top-performing lists.
type activityEntry struct {
	ID              string    `json:"id"`
	ContractName    string    `json:"contractName"`
	ContractAddress string    `json:"contractAddress"`
	TransactionHash string    `json:"transactionHash"`
	WalletAddress   string    `json:"walletAddress"`
	Timestamp       time.Time `json:"timestamp"`
	Score           int       `json:"score"`
	Status          string    `json:"status,omitempty"`
}

func formatActivity(audits []models.Audit, withStatus bool) []activityEntry {
	return lo.Map(audits, func(a models.Audit, _ int) activityEntry {
		wallet := ""
		if a.User != nil {
			wallet = a.User.WalletAddress
		}
		entry := activityEntry{
			ID:              a.ID,
			ContractName:    a.ContractName,
			ContractAddress: a.ContractAddress,
			TransactionHash: a.TransactionHash,
			WalletAddress:   wallet,
			Timestamp:       a.CreatedAt,
			Score:           a.Score,
		}
		if withStatus {
			entry.Status = a.Status
		}
		return entry
	})
}

// severityBreakdown uses the full "informational" key, unlike the audit
// issue counters which abbreviate it to "info".
type severityBreakdown struct {
	Critical      int `json:"critical"`
	High          int `json:"high"`
	Medium        int `json:"medium"`
	Low           int `json:"low"`
	Informational int `json:"informational"`
}

type globalStatsResponse struct {
	TotalAudits               int               `json:"totalAudits"`
	TotalVulnerabilities      int               `json:"totalVulnerabilities"`
	TotalVulnerabilitiesFixed int               `json:"totalVulnerabilitiesFixed"`
	AverageSecurityScore      float64           `json:"averageSecurityScore"`
	TotalContractsScanned     int               `json:"totalContractsScanned"`
	VulnerabilityBreakdown    severityBreakdown `json:"vulnerabilityBreakdown"`
}

// formatGlobalStats returns nil when the snapshot was never initialized; the
// JSON field then renders as null.
func formatGlobalStats(g *models.GlobalStats) *globalStatsResponse {
	if g == nil {
		return nil
	}
	b := g.VulnerabilityBreakdown()
	return &globalStatsResponse{
		TotalAudits:               g.TotalAudits,
		TotalVulnerabilities:      g.TotalVulnerabilities,
		TotalVulnerabilitiesFixed: g.TotalVulnerabilitiesFixed,
		AverageSecurityScore:      g.AverageSecurityScore,
		TotalContractsScanned:     g.TotalContractsScanned,
		VulnerabilityBreakdown: severityBreakdown{
			Critical:      b.Critical,
			High:          b.High,
			Medium:        b.Medium,
			Low:           b.Low,
			Informational: b.Informational,
		},
	}
}
