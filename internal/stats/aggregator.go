// Package stats computes read-only derived views over the audit store: the
// dashboard summary, the global statistics report and per-user profiles.
package stats

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/chainproof/chainaudit/internal/store"
	"github.com/chainproof/chainaudit/models"
)

// DashboardWindow is the number of most-recent audits the dashboard summary
// is computed over. Issue totals are windowed sums over at most this many
// rows, not global totals.
const DashboardWindow = 10

// RecentActivityDays bounds the "recent activity" and "active user" windows
// of the global report.
const RecentActivityDays = 30

// TopContractMinScore is the score floor for the top-performing contract
// list.
const TopContractMinScore = 90

// Aggregator computes derived summaries from repository data. It performs no
// mutations.
type Aggregator struct {
	store *store.Store
}

// New creates an Aggregator over the given store.
func New(st *store.Store) *Aggregator {
	return &Aggregator{store: st}
}

// Summary is the windowed dashboard roll-up over the most recent audits.
// VulnerabilitiesFixed comes from the GlobalStats snapshot rather than the
// window; the mix of windowed and global figures is deliberate.
type Summary struct {
	Score                int       `json:"score"`
	CriticalIssues       int       `json:"criticalIssues"`
	HighIssues           int       `json:"highIssues"`
	MediumIssues         int       `json:"mediumIssues"`
	LowIssues            int       `json:"lowIssues"`
	Informational        int       `json:"informational"`
	LastScan             time.Time `json:"lastScan"`
	ContractsScanned     int       `json:"contractsScanned"`
	VulnerabilitiesFixed int       `json:"vulnerabilitiesFixed"`
	ScanDuration         string    `json:"scanDuration"`
}

// Dashboard is the full payload backing the dashboard page.
type Dashboard struct {
	Summary            Summary
	RecentAudits       []models.Audit
	VulnerabilityTypes []models.VulnerabilityType
	AiInsights         []models.AiInsight
	GlobalStats        *models.GlobalStats
}

// Dashboard fetches up to DashboardWindow most recent audits (optionally
// filtered by wallet) and reduces them to the dashboard summary, together
// with the top insights by confidence and the vulnerability-type analytics.
func (a *Aggregator) Dashboard(ctx context.Context, walletAddress string) (*Dashboard, error) {
	db := a.store.DB().WithContext(ctx)

	recentQuery := store.Hydrated(db)
	if walletAddress != "" {
		recentQuery = recentQuery.
			Joins("JOIN users ON users.id = audits.user_id").
			Where("users.wallet_address = ?", walletAddress)
	}

	var recent []models.Audit
	if err := recentQuery.
		Order("audits.created_at DESC").
		Limit(DashboardWindow).
		Find(&recent).Error; err != nil {
		return nil, err
	}

	globalStats, err := a.store.GetGlobalStats(ctx)
	if err != nil {
		return nil, err
	}

	var vulnTypes []models.VulnerabilityType
	if err := db.Order("count DESC").Find(&vulnTypes).Error; err != nil {
		return nil, err
	}

	var insights []models.AiInsight
	if len(recent) > 0 {
		auditIDs := lo.Map(recent, func(a models.Audit, _ int) string { return a.ID })
		if err := db.
			Where("audit_id IN ?", auditIDs).
			Order("confidence DESC").
			Limit(DashboardWindow).
			Find(&insights).Error; err != nil {
			return nil, err
		}
	}

	return &Dashboard{
		Summary:            summarize(recent, globalStats),
		RecentAudits:       recent,
		VulnerabilityTypes: vulnTypes,
		AiInsights:         insights,
		GlobalStats:        globalStats,
	}, nil
}

// summarize reduces the fetched window to a Summary. An empty window yields
// a zero-valued summary with lastScan set to now.
func summarize(recent []models.Audit, globalStats *models.GlobalStats) Summary {
	if len(recent) == 0 {
		return Summary{
			LastScan:     time.Now(),
			ScanDuration: "0s",
		}
	}

	fixed := 0
	if globalStats != nil {
		fixed = globalStats.TotalVulnerabilitiesFixed
	}

	return Summary{
		Score:                roundMean(lo.SumBy(recent, auditScore), len(recent)),
		CriticalIssues:       lo.SumBy(recent, func(a models.Audit) int { return a.CriticalIssues }),
		HighIssues:           lo.SumBy(recent, func(a models.Audit) int { return a.HighIssues }),
		MediumIssues:         lo.SumBy(recent, func(a models.Audit) int { return a.MediumIssues }),
		LowIssues:            lo.SumBy(recent, func(a models.Audit) int { return a.LowIssues }),
		Informational:        lo.SumBy(recent, func(a models.Audit) int { return a.InformationalIssues }),
		LastScan:             recent[0].CreatedAt,
		ContractsScanned:     len(recent),
		VulnerabilitiesFixed: fixed,
		ScanDuration:         scanDurationOrDefault(recent[0]),
	}
}

// GlobalReport is the payload backing the public statistics page.
type GlobalReport struct {
	GlobalStats        *models.GlobalStats
	VulnerabilityTypes []models.VulnerabilityType
	RecentActivity     []models.Audit
	TotalUsers         int
	ActiveUsers        int
	TopContracts       []models.Audit
	// SeverityCounts is computed fresh over the entire vulnerability table
	// with a group-by, unlike the windowed dashboard sums. Keys are
	// lower-cased severity labels.
	SeverityCounts map[string]int
}

// ActiveUserPercentage returns the share of users with at least one audit in
// the recent-activity window, rounded.
func (r *GlobalReport) ActiveUserPercentage() int {
	if r.TotalUsers == 0 {
		return 0
	}
	return roundMean(r.ActiveUsers*100, r.TotalUsers)
}

// Global assembles the global statistics report: the snapshot row, the
// vulnerability-type analytics, recent activity and top contracts, user
// counts and a fresh per-severity group-by.
func (a *Aggregator) Global(ctx context.Context) (*GlobalReport, error) {
	db := a.store.DB().WithContext(ctx)

	globalStats, err := a.store.GetGlobalStats(ctx)
	if err != nil {
		return nil, err
	}

	var vulnTypes []models.VulnerabilityType
	if err := db.Order("count DESC").Find(&vulnTypes).Error; err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -RecentActivityDays)

	var recentActivity []models.Audit
	if err := db.
		Preload("User").
		Where("created_at >= ?", cutoff).
		Order("created_at DESC").
		Limit(5).
		Find(&recentActivity).Error; err != nil {
		return nil, err
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return nil, err
	}

	var activeUsers int64
	if err := db.Model(&models.Audit{}).
		Where("created_at >= ?", cutoff).
		Distinct("user_id").
		Count(&activeUsers).Error; err != nil {
		return nil, err
	}

	var topContracts []models.Audit
	if err := db.
		Preload("User").
		Where("score >= ?", TopContractMinScore).
		Order("score DESC").
		Limit(5).
		Find(&topContracts).Error; err != nil {
		return nil, err
	}

	type severityRow struct {
		Severity string
		Count    int
	}
	var rows []severityRow
	if err := db.Model(&models.Vulnerability{}).
		Select("severity, COUNT(id) AS count").
		Group("severity").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	severityCounts := make(map[string]int, len(rows))
	for _, row := range rows {
		severityCounts[strings.ToLower(row.Severity)] = row.Count
	}

	return &GlobalReport{
		GlobalStats:        globalStats,
		VulnerabilityTypes: vulnTypes,
		RecentActivity:     recentActivity,
		TotalUsers:         int(totalUsers),
		ActiveUsers:        int(activeUsers),
		TopContracts:       topContracts,
		SeverityCounts:     severityCounts,
	}, nil
}

// UserStats holds the derived statistics over the complete set of a user's
// audits (no windowing).
type UserStats struct {
	TotalAudits          int `json:"totalAudits"`
	AverageScore         int `json:"averageScore"`
	TotalVulnerabilities int `json:"totalVulnerabilities"`
	CriticalIssues       int `json:"criticalIssues"`
	HighIssues           int `json:"highIssues"`
	MediumIssues         int `json:"mediumIssues"`
	LowIssues            int `json:"lowIssues"`
	InformationalIssues  int `json:"informationalIssues"`
}

// Profile is a user together with all of their audits and derived totals.
type Profile struct {
	User  *models.User
	Stats UserStats
}

// UserProfile returns the full profile for a wallet address, or
// store.ErrNotFound if no such user exists.
func (a *Aggregator) UserProfile(ctx context.Context, walletAddress string) (*Profile, error) {
	user, err := a.store.GetUserWithAudits(ctx, walletAddress)
	if err != nil {
		return nil, err
	}

	audits := user.Audits
	stats := UserStats{
		TotalAudits:         len(audits),
		CriticalIssues:      lo.SumBy(audits, func(a models.Audit) int { return a.CriticalIssues }),
		HighIssues:          lo.SumBy(audits, func(a models.Audit) int { return a.HighIssues }),
		MediumIssues:        lo.SumBy(audits, func(a models.Audit) int { return a.MediumIssues }),
		LowIssues:           lo.SumBy(audits, func(a models.Audit) int { return a.LowIssues }),
		InformationalIssues: lo.SumBy(audits, func(a models.Audit) int { return a.InformationalIssues }),
	}
	stats.TotalVulnerabilities = lo.SumBy(audits, func(a models.Audit) int { return a.Issues().Total() })
	if len(audits) > 0 {
		stats.AverageScore = roundMean(lo.SumBy(audits, auditScore), len(audits))
	}

	return &Profile{User: user, Stats: stats}, nil
}

func auditScore(a models.Audit) int {
	return a.Score
}

func scanDurationOrDefault(a models.Audit) string {
	if a.ScanDuration == "" {
		return "0s"
	}
	return a.ScanDuration
}

// roundMean returns sum/n rounded to the nearest integer, ties rounding
// half away from zero (math.Round).
func roundMean(sum, n int) int {
	return int(math.Round(float64(sum) / float64(n)))
}
