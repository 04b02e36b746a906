package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chainproof/chainaudit/models"
)

// DefaultPageSize is the page size used when a listing request does not
// specify one.
const DefaultPageSize = 10

// DefaultMaxPageSize caps the listing page size to keep result sets bounded.
const DefaultMaxPageSize = 100

// Store owns persistence and retrieval of Audit aggregates and their
// children. Every multi-statement write runs inside a single transaction so
// an audit can never be observed without its declared children.
type Store struct {
	db          *gorm.DB
	maxPageSize int
}

// New creates a Store on top of the given database.
func New(db *gorm.DB) *Store {
	return &Store{db: db, maxPageSize: DefaultMaxPageSize}
}

// SetMaxPageSize overrides the listing page-size cap.
func (s *Store) SetMaxPageSize(n int) {
	if n > 0 {
		s.maxPageSize = n
	}
}

// DB exposes the underlying database handle for read-only aggregation.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// CreateAudit validates and persists a new audit with its children, finding
// or creating the owning user by wallet address. The five issue counters are
// computed from the supplied vulnerabilities by exact severity match. The
// GlobalStats snapshot is recomputed in the same transaction.
func (s *Store) CreateAudit(ctx context.Context, in CreateAuditInput) (*models.Audit, error) {
	var missing []string
	for _, field := range []struct {
		name, value string
	}{
		{"contractName", in.ContractName},
		{"contractAddress", in.ContractAddress},
		{"transactionHash", in.TransactionHash},
		{"walletAddress", in.WalletAddress},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}

	if in.Status == "" {
		in.Status = "Pending"
	}

	var auditID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := upsertUser(tx, in.WalletAddress, false)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Audit{}).
			Where("transaction_hash = ?", in.TransactionHash).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateTransaction
		}

		vulns := vulnerabilityModels(in.Vulnerabilities)
		audit := models.Audit{
			ID:              uuid.NewString(),
			ContractName:    in.ContractName,
			ContractAddress: in.ContractAddress,
			TransactionHash: in.TransactionHash,
			UserID:          user.ID,
			Score:           in.Score,
			Status:          in.Status,
			ScanDuration:    in.ScanDuration,
			Report:          in.Report,
			Vulnerabilities: vulns,
			AiInsights:      insightModels(in.AiInsights),
			Metrics:         metricsModel(in.Metrics, in.Score),
		}
		audit.SetIssues(models.CountIssues(vulns))

		if err := tx.Create(&audit).Error; err != nil {
			// Two concurrent creations with the same hash race past the
			// pre-check; the unique index decides the loser.
			if isUniqueViolation(err) {
				return ErrDuplicateTransaction
			}
			return err
		}
		auditID = audit.ID

		return recomputeGlobalStats(tx)
	})
	if err != nil {
		return nil, err
	}

	return s.GetAudit(ctx, auditID)
}

// GetAudit returns the fully hydrated audit or ErrNotFound.
func (s *Store) GetAudit(ctx context.Context, id string) (*models.Audit, error) {
	var audit models.Audit
	err := Hydrated(s.db.WithContext(ctx)).First(&audit, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &audit, nil
}

// ListFilter narrows and pages an audit listing.
type ListFilter struct {
	WalletAddress string
	Status        string
	Page          int
	Limit         int
}

// AuditPage is one page of hydrated audits, most recent first, with derived
// pagination metadata.
type AuditPage struct {
	Audits     []models.Audit
	Page       int
	Limit      int
	Total      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// ListAudits returns a page of hydrated audits ordered by creation time
// descending. Page defaults to 1, limit to DefaultPageSize, and limit is
// clamped to the configured maximum.
func (s *Store) ListAudits(ctx context.Context, filter ListFilter) (*AuditPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	scope := func(tx *gorm.DB) *gorm.DB {
		if filter.WalletAddress != "" {
			tx = tx.Joins("JOIN users ON users.id = audits.user_id").
				Where("users.wallet_address = ?", filter.WalletAddress)
		}
		if filter.Status != "" {
			tx = tx.Where("audits.status = ?", filter.Status)
		}
		return tx
	}

	var total int64
	if err := scope(s.db.WithContext(ctx).Model(&models.Audit{})).Count(&total).Error; err != nil {
		return nil, err
	}

	var audits []models.Audit
	err := scope(Hydrated(s.db.WithContext(ctx))).
		Order("audits.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&audits).Error
	if err != nil {
		return nil, err
	}

	return &AuditPage{
		Audits:     audits,
		Page:       page,
		Limit:      limit,
		Total:      int(total),
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		HasNext:    page*limit < int(total),
		HasPrev:    page > 1,
	}, nil
}

// UpdateAudit applies a partial field update and, when child collections are
// supplied, replaces them in full. Issue counters are recomputed from the
// supplied vulnerabilities in the same transaction. The GlobalStats snapshot
// is recomputed after the write.
func (s *Store) UpdateAudit(ctx context.Context, id string, in UpdateAuditInput) (*models.Audit, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var audit models.Audit
		if err := tx.First(&audit, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		updates := map[string]interface{}{}
		if in.Score != nil {
			updates["score"] = *in.Score
		}
		if in.Status != "" {
			updates["status"] = in.Status
		}
		if in.ScanDuration != "" {
			updates["scan_duration"] = in.ScanDuration
		}

		if in.Vulnerabilities != nil {
			if err := tx.Where("audit_id = ?", id).Delete(&models.Vulnerability{}).Error; err != nil {
				return err
			}
			vulns := vulnerabilityModels(*in.Vulnerabilities)
			for i := range vulns {
				vulns[i].AuditID = id
			}
			if len(vulns) > 0 {
				if err := tx.Create(&vulns).Error; err != nil {
					return err
				}
			}
			counts := models.CountIssues(vulns)
			updates["critical_issues"] = counts.Critical
			updates["high_issues"] = counts.High
			updates["medium_issues"] = counts.Medium
			updates["low_issues"] = counts.Low
			updates["informational_issues"] = counts.Informational
		}

		if in.AiInsights != nil {
			if err := tx.Where("audit_id = ?", id).Delete(&models.AiInsight{}).Error; err != nil {
				return err
			}
			insights := insightModels(*in.AiInsights)
			for i := range insights {
				insights[i].AuditID = id
			}
			if len(insights) > 0 {
				if err := tx.Create(&insights).Error; err != nil {
					return err
				}
			}
		}

		if in.Metrics != nil {
			metrics := metricsModel(in.Metrics, audit.Score)
			metrics.AuditID = id

			var current models.AuditMetrics
			err := tx.Where("audit_id = ?", id).First(&current).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(metrics).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				metrics.ID = current.ID
				if err := tx.Save(metrics).Error; err != nil {
					return err
				}
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(&audit).Updates(updates).Error; err != nil {
				return err
			}
		}

		return recomputeGlobalStats(tx)
	})
	if err != nil {
		return nil, err
	}

	return s.GetAudit(ctx, id)
}

// DeleteAudit removes the audit and cascades to its vulnerabilities,
// insights and metrics. The GlobalStats snapshot is recomputed after the
// delete.
func (s *Store) DeleteAudit(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var audit models.Audit
		if err := tx.First(&audit, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		for _, child := range []interface{}{
			&models.Vulnerability{},
			&models.AiInsight{},
			&models.AuditMetrics{},
		} {
			if err := tx.Where("audit_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&audit).Error; err != nil {
			return err
		}

		return recomputeGlobalStats(tx)
	})
}

// Hydrated preloads the full audit aggregate (user, vulnerabilities,
// insights, metrics) onto an audit query.
func Hydrated(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("User").
		Preload("Vulnerabilities").
		Preload("AiInsights").
		Preload("Metrics")
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// upsertUser finds or creates the user for a wallet address. When touch is
// set, an existing user's updated_at is bumped.
func upsertUser(tx *gorm.DB, walletAddress string, touch bool) (*models.User, error) {
	var user models.User
	err := tx.Where("wallet_address = ?", walletAddress).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{WalletAddress: walletAddress}
		if err := tx.Create(&user).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case touch:
		if err := tx.Model(&user).Update("updated_at", time.Now()).Error; err != nil {
			return nil, err
		}
	}
	return &user, nil
}
