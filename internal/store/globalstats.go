package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chainproof/chainaudit/models"
)

// RecomputeGlobalStats rebuilds the GlobalStats snapshot from the entire
// Audit and Vulnerability tables and overwrites the single well-known row.
// Cost is O(total audits) per call, trading write cost for O(1) dashboard
// reads.
func (s *Store) RecomputeGlobalStats(ctx context.Context) error {
	return recomputeGlobalStats(s.db.WithContext(ctx))
}

// GetGlobalStats returns the snapshot row, or nil if it was never
// initialized.
func (s *Store) GetGlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	return getGlobalStats(s.db.WithContext(ctx))
}

func getGlobalStats(tx *gorm.DB) (*models.GlobalStats, error) {
	var stats models.GlobalStats
	err := tx.First(&stats, "id = ?", models.GlobalStatsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func recomputeGlobalStats(tx *gorm.DB) error {
	var totalAudits int64
	if err := tx.Model(&models.Audit{}).Count(&totalAudits).Error; err != nil {
		return err
	}

	var totalVulns int64
	if err := tx.Model(&models.Vulnerability{}).Count(&totalVulns).Error; err != nil {
		return err
	}

	var totalFixed int64
	if err := tx.Model(&models.Vulnerability{}).Where("fixed = ?", true).Count(&totalFixed).Error; err != nil {
		return err
	}

	// Unweighted arithmetic mean over all audits, stored unrounded.
	var averageScore float64
	if err := tx.Model(&models.Audit{}).
		Select("COALESCE(AVG(score), 0)").
		Scan(&averageScore).Error; err != nil {
		return err
	}

	severityCount := func(severity string) (int, error) {
		var n int64
		err := tx.Model(&models.Vulnerability{}).Where("severity = ?", severity).Count(&n).Error
		return int(n), err
	}

	stats := models.GlobalStats{
		ID:                        models.GlobalStatsID,
		TotalAudits:               int(totalAudits),
		TotalVulnerabilities:      int(totalVulns),
		TotalVulnerabilitiesFixed: int(totalFixed),
		AverageSecurityScore:      averageScore,
		TotalContractsScanned:     int(totalAudits),
		UpdatedAt:                 time.Now(),
	}

	var err error
	if stats.CriticalVulns, err = severityCount(models.SeverityCritical); err != nil {
		return err
	}
	if stats.HighVulns, err = severityCount(models.SeverityHigh); err != nil {
		return err
	}
	if stats.MediumVulns, err = severityCount(models.SeverityMedium); err != nil {
		return err
	}
	if stats.LowVulns, err = severityCount(models.SeverityLow); err != nil {
		return err
	}
	if stats.InformationalVulns, err = severityCount(models.SeverityInformational); err != nil {
		return err
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&stats).Error
}
