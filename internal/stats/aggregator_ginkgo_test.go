package stats_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chainproof/chainaudit/internal/db"
	"github.com/chainproof/chainaudit/internal/stats"
	"github.com/chainproof/chainaudit/internal/store"
	"github.com/chainproof/chainaudit/models"
)

var _ = Describe("Aggregator", func() {
	var (
		st  *store.Store
		agg *stats.Aggregator
		ctx context.Context
	)

	BeforeEach(func() {
		gormDB, err := db.New(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		st = store.New(gormDB)
		agg = stats.New(st)
		ctx = context.Background()
	})

	createAudit := func(hash, wallet string, score int, vulns ...store.VulnerabilityInput) *models.Audit {
		audit, err := st.CreateAudit(ctx, store.CreateAuditInput{
			ContractName:    "Vault" + hash,
			ContractAddress: "0xContract",
			TransactionHash: hash,
			WalletAddress:   wallet,
			Score:           score,
			Status:          "Completed",
			ScanDuration:    "9s",
			Vulnerabilities: vulns,
		})
		Expect(err).NotTo(HaveOccurred())
		return audit
	}

	setCreatedAt := func(auditID string, ts time.Time) {
		Expect(st.DB().Model(&models.Audit{}).
			Where("id = ?", auditID).
			Update("created_at", ts).Error).NotTo(HaveOccurred())
	}

	Describe("Dashboard", func() {
		It("returns a zero-valued summary when no audits exist", func() {
			dash, err := agg.Dashboard(ctx, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(dash.Summary.Score).To(Equal(0))
			Expect(dash.Summary.ContractsScanned).To(Equal(0))
			Expect(dash.Summary.ScanDuration).To(Equal("0s"))
			Expect(dash.Summary.LastScan).To(BeTemporally("~", time.Now(), time.Minute))
			Expect(dash.RecentAudits).To(BeEmpty())
			Expect(dash.GlobalStats).To(BeNil())
		})

		It("windows issue totals over at most the ten most recent audits", func() {
			base := time.Now().Add(-time.Hour)
			for i := 0; i < 12; i++ {
				audit := createAudit(fmt.Sprintf("0x%02d", i), "0xWallet", 50,
					store.VulnerabilityInput{Name: "V", Severity: models.SeverityHigh})
				setCreatedAt(audit.ID, base.Add(time.Duration(i)*time.Minute))
			}

			dash, err := agg.Dashboard(ctx, "")
			Expect(err).NotTo(HaveOccurred())

			// 12 audits exist with one High each, but the summary only sums
			// the window.
			Expect(dash.RecentAudits).To(HaveLen(10))
			Expect(dash.Summary.HighIssues).To(Equal(10))
			Expect(dash.Summary.ContractsScanned).To(Equal(10))

			// The global figure in the same payload still covers everything.
			Expect(dash.GlobalStats).NotTo(BeNil())
			Expect(dash.GlobalStats.TotalVulnerabilities).To(Equal(12))
		})

		It("rounds the mean score of the window", func() {
			createAudit("0x01", "0xWallet", 82)
			createAudit("0x02", "0xWallet", 83)

			dash, err := agg.Dashboard(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			// (82+83)/2 = 82.5 rounds half away from zero.
			Expect(dash.Summary.Score).To(Equal(83))
		})

		It("filters the window by wallet", func() {
			createAudit("0x01", "0xAlice", 90)
			createAudit("0x02", "0xBob", 10)

			dash, err := agg.Dashboard(ctx, "0xAlice")
			Expect(err).NotTo(HaveOccurred())
			Expect(dash.RecentAudits).To(HaveLen(1))
			Expect(dash.Summary.Score).To(Equal(90))
			Expect(dash.Summary.ContractsScanned).To(Equal(1))
		})

		It("takes vulnerabilitiesFixed from the global snapshot, not the window", func() {
			createAudit("0x01", "0xAlice", 90,
				store.VulnerabilityInput{Name: "F", Severity: models.SeverityLow, Fixed: true})
			createAudit("0x02", "0xBob", 50)

			// Bob's window contains no fixed vulnerabilities of his own.
			dash, err := agg.Dashboard(ctx, "0xBob")
			Expect(err).NotTo(HaveOccurred())
			Expect(dash.RecentAudits).To(HaveLen(1))
			Expect(dash.Summary.VulnerabilitiesFixed).To(Equal(1))
		})

		It("returns the most confident insights of the window", func() {
			audit, err := st.CreateAudit(ctx, store.CreateAuditInput{
				ContractName:    "Vault",
				ContractAddress: "0xContract",
				TransactionHash: "0x01",
				WalletAddress:   "0xWallet",
				AiInsights: []store.InsightInput{
					{Title: "Low confidence", Confidence: 10},
					{Title: "High confidence", Confidence: 99},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(audit.AiInsights).To(HaveLen(2))

			dash, err := agg.Dashboard(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(dash.AiInsights).To(HaveLen(2))
			Expect(dash.AiInsights[0].Title).To(Equal("High confidence"))
		})
	})

	Describe("Global", func() {
		It("reports user counts and fresh severity totals", func() {
			createAudit("0x01", "0xAlice", 95,
				store.VulnerabilityInput{Name: "A", Severity: models.SeverityCritical},
				store.VulnerabilityInput{Name: "B", Severity: models.SeverityCritical},
				store.VulnerabilityInput{Name: "C", Severity: models.SeverityLow})
			old := createAudit("0x02", "0xBob", 40)
			setCreatedAt(old.ID, time.Now().AddDate(0, 0, -60))

			report, err := agg.Global(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.TotalUsers).To(Equal(2))
			// Bob's only audit is outside the 30-day window.
			Expect(report.ActiveUsers).To(Equal(1))
			Expect(report.ActiveUserPercentage()).To(Equal(50))
			Expect(report.RecentActivity).To(HaveLen(1))
			Expect(report.RecentActivity[0].TransactionHash).To(Equal("0x01"))

			Expect(report.SeverityCounts).To(HaveKeyWithValue("critical", 2))
			Expect(report.SeverityCounts).To(HaveKeyWithValue("low", 1))
		})

		It("lists only contracts scoring at least ninety, highest first", func() {
			createAudit("0x01", "0xAlice", 95)
			createAudit("0x02", "0xAlice", 89)
			createAudit("0x03", "0xBob", 98)

			report, err := agg.Global(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.TopContracts).To(HaveLen(2))
			Expect(report.TopContracts[0].Score).To(Equal(98))
			Expect(report.TopContracts[1].Score).To(Equal(95))
		})

		It("carries the snapshot row", func() {
			createAudit("0x01", "0xAlice", 80)

			report, err := agg.Global(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.GlobalStats).NotTo(BeNil())
			Expect(report.GlobalStats.TotalAudits).To(Equal(1))
		})
	})

	Describe("UserProfile", func() {
		It("fails with not found for an unknown wallet", func() {
			_, err := agg.UserProfile(ctx, "0xNobody")
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("computes totals over the complete set of the user's audits", func() {
			createAudit("0x01", "0xAlice", 60,
				store.VulnerabilityInput{Name: "A", Severity: models.SeverityHigh})
			createAudit("0x02", "0xAlice", 80,
				store.VulnerabilityInput{Name: "B", Severity: models.SeverityHigh},
				store.VulnerabilityInput{Name: "C", Severity: models.SeverityMedium})
			createAudit("0x03", "0xAlice", 100)

			profile, err := agg.UserProfile(ctx, "0xAlice")
			Expect(err).NotTo(HaveOccurred())

			Expect(profile.Stats.TotalAudits).To(Equal(3))
			Expect(profile.Stats.AverageScore).To(Equal(80))
			Expect(profile.Stats.TotalVulnerabilities).To(Equal(3))
			Expect(profile.Stats.HighIssues).To(Equal(2))
			Expect(profile.Stats.MediumIssues).To(Equal(1))
			Expect(profile.User.Audits).To(HaveLen(3))
		})
	})
})
