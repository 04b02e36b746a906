package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chainproof/chainaudit/internal/store"
)

func (s *Server) createAudit(w http.ResponseWriter, r *http.Request) {
	var in store.CreateAuditInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	audit, err := s.store.CreateAudit(r.Context(), in)
	if err != nil {
		writeError(w, err, "Audit not found", "Failed to create audit")
		return
	}

	respondJSON(w, http.StatusCreated, formatAudit(*audit))
}

func (s *Server) listAudits(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.ListFilter{
		WalletAddress: query.Get("wallet"),
		Status:        query.Get("status"),
		Page:          intParam(query.Get("page"), 1),
		Limit:         intParam(query.Get("limit"), store.DefaultPageSize),
	}

	page, err := s.store.ListAudits(r.Context(), filter)
	if err != nil {
		writeError(w, err, "Audit not found", "Failed to fetch audits")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"audits": formatAudits(page.Audits),
		"pagination": map[string]interface{}{
			"page":       page.Page,
			"limit":      page.Limit,
			"total":      page.Total,
			"totalPages": page.TotalPages,
			"hasNext":    page.HasNext,
			"hasPrev":    page.HasPrev,
		},
	})
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	audit, err := s.store.GetAudit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Audit not found", "Failed to fetch audit")
		return
	}
	respondJSON(w, http.StatusOK, formatAudit(*audit))
}

func (s *Server) updateAudit(w http.ResponseWriter, r *http.Request) {
	var in store.UpdateAuditInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	audit, err := s.store.UpdateAudit(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err, "Audit not found", "Failed to update audit")
		return
	}
	respondJSON(w, http.StatusOK, formatAudit(*audit))
}

func (s *Server) deleteAudit(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAudit(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "Audit not found", "Failed to delete audit")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Audit deleted successfully"})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	profile, err := s.stats.UserProfile(r.Context(), chi.URLParam(r, "walletAddress"))
	if err != nil {
		writeError(w, err, "User not found", "Failed to fetch user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":            profile.User.ID,
		"walletAddress": profile.User.WalletAddress,
		"createdAt":     profile.User.CreatedAt.Format(time.RFC3339),
		"stats":         profile.Stats,
		"audits":        formatAudits(profile.User.Audits),
	})
}

func (s *Server) upsertUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.UpsertUser(r.Context(), chi.URLParam(r, "walletAddress"))
	if err != nil {
		writeError(w, err, "User not found", "Failed to create/update user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":            user.ID,
		"walletAddress": user.WalletAddress,
		"createdAt":     user.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.stats.Dashboard(r.Context(), r.URL.Query().Get("wallet"))
	if err != nil {
		writeError(w, err, "User not found", "Failed to fetch dashboard data")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"auditSummary":       dash.Summary,
		"recentAudits":       formatAudits(dash.RecentAudits),
		"vulnerabilityTypes": dash.VulnerabilityTypes,
		"aiInsights":         dash.AiInsights,
		"globalStats":        formatGlobalStats(dash.GlobalStats),
	})
}

func (s *Server) globalStats(w http.ResponseWriter, r *http.Request) {
	report, err := s.stats.Global(r.Context())
	if err != nil {
		writeError(w, err, "Statistics not found", "Failed to fetch statistics")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"globalStats":        formatGlobalStats(report.GlobalStats),
		"vulnerabilityTypes": report.VulnerabilityTypes,
		"recentActivity":     formatActivity(report.RecentActivity, true),
		"userStats": map[string]interface{}{
			"totalUsers":           report.TotalUsers,
			"activeUsers":          report.ActiveUsers,
			"activeUserPercentage": report.ActiveUserPercentage(),
		},
		"topPerformingContracts": formatActivity(report.TopContracts, false),
		"vulnerabilityStats":     report.SeverityCounts,
	})
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
