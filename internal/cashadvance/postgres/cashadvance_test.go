package postgres

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/cash-advance-management/internal"
	"github.com/frahmantamala/cash-advance-management/internal/cashadvance"
	"github.com/frahmantamala/cash-advance-management/internal/core/audit"
	"github.com/frahmantamala/cash-advance-management/internal/employee"
	"github.com/frahmantamala/cash-advance-management/internal/payment"
)

func TestCashAdvanceRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CashAdvanceRepository Suite")
}

const summaryViewSQL = `
CREATE VIEW cash_advance_summaries AS
SELECT
    ca.id AS advance_id,
    ca.employee_id,
    e.first_name || ' ' || e.last_name AS employee_name,
    ca.amount_idr,
    ca.status,
    COALESCE(p.total_paid_idr, 0) AS total_paid_idr,
    ca.amount_idr - COALESCE(p.total_paid_idr, 0) AS remaining_balance_idr,
    ca.created_at
FROM cash_advances ca
JOIN employees e ON e.id = ca.employee_id
LEFT JOIN (
    SELECT cash_advance_id, SUM(amount_idr) AS total_paid_idr
    FROM payments
    GROUP BY cash_advance_id
) p ON p.cash_advance_id = ca.id`

var _ = Describe("CashAdvanceRepository", func() {
	var (
		db         *gorm.DB
		repo       cashadvance.Repository
		ctx        context.Context
		actorID    string
		employeeID string
	)

	auditEntries := func(entityID string) []*audit.Log {
		var entries []*audit.Log
		err := db.Where("entity_id = ?", entityID).Order("created_at ASC").Find(&entries).Error
		Expect(err).NotTo(HaveOccurred())
		return entries
	}

	newAdvance := func(amount int64) *cashadvance.CashAdvance {
		a := &cashadvance.CashAdvance{
			EmployeeID: employeeID,
			AmountIDR:  amount,
			Reason:     "school fees",
		}
		Expect(repo.Create(ctx, a)).To(Succeed())
		return a
	}

	addPayment := func(advanceID string, amount int64) {
		p := &payment.Payment{
			CashAdvanceID: advanceID,
			AmountIDR:     amount,
			PaymentType:   payment.TypeCash,
			PaymentDate:   time.Now(),
		}
		Expect(db.Create(p).Error).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		Expect(db.Use(audit.NewPlugin(logger))).To(Succeed())

		err = db.AutoMigrate(&employee.Employee{}, &cashadvance.CashAdvance{}, &payment.Payment{}, &audit.Log{})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.Exec(summaryViewSQL).Error).NotTo(HaveOccurred())

		repo = NewCashAdvanceRepository(db)

		actorID = uuid.NewString()
		ctx = internal.ContextWithActor(context.Background(), internal.Actor{
			UserID:    actorID,
			IPAddress: "10.0.0.7",
		})

		e := &employee.Employee{
			FirstName: "Budi",
			LastName:  "Santoso",
			HireDate:  time.Now(),
			SalaryIDR: 12000000,
		}
		Expect(db.WithContext(ctx).Create(e).Error).NotTo(HaveOccurred())
		employeeID = e.ID
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Create", func() {
		It("should persist the advance and append a CREATE audit entry", func() {
			a := newAdvance(5000000)

			stored, err := repo.GetByID(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(cashadvance.StatusPending))

			entries := auditEntries(a.ID)
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Action).To(Equal(audit.ActionCreate))
			Expect(entries[0].EntityType).To(Equal("cash_advances"))
			Expect(entries[0].OldValues).To(BeNil())
			Expect(entries[0].NewValues).NotTo(BeNil())
			Expect(entries[0].UserID).NotTo(BeNil())
			Expect(*entries[0].UserID).To(Equal(actorID))
			Expect(entries[0].IPAddress).To(Equal("10.0.0.7"))
		})
	})

	Describe("Transition", func() {
		It("should apply the change and append exactly one UPDATE entry", func() {
			a := newAdvance(5000000)

			_, err := repo.Transition(ctx, a.ID, func(adv *cashadvance.CashAdvance, totalPaid int64) error {
				Expect(totalPaid).To(Equal(int64(0)))
				adv.Approve(actorID, nil, nil)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			stored, err := repo.GetByID(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(cashadvance.StatusApproved))

			entries := auditEntries(a.ID)
			Expect(entries).To(HaveLen(2)) // CREATE then UPDATE
			update := entries[1]
			Expect(update.Action).To(Equal(audit.ActionUpdate))
			Expect(string(update.OldValues)).To(ContainSubstring("PENDING"))
			Expect(string(update.NewValues)).To(ContainSubstring("APPROVED"))
		})

		It("should see prior repayments in the transaction total", func() {
			a := newAdvance(5000000)
			addPayment(a.ID, 2000000)
			addPayment(a.ID, 500000)

			var seen int64
			_, err := repo.Transition(ctx, a.ID, func(adv *cashadvance.CashAdvance, totalPaid int64) error {
				seen = totalPaid
				adv.Approve(actorID, nil, nil)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal(int64(2500000)))
		})

		It("should roll back the write and skip the audit entry when fn fails", func() {
			a := newAdvance(5000000)

			_, err := repo.Transition(ctx, a.ID, func(adv *cashadvance.CashAdvance, totalPaid int64) error {
				adv.Approve(actorID, nil, nil)
				return internal.NewInvalidStateError("nope", internal.ErrCodeInvalidTransition)
			})
			Expect(err).To(HaveOccurred())

			stored, err := repo.GetByID(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(cashadvance.StatusPending))

			entries := auditEntries(a.ID)
			Expect(entries).To(HaveLen(1)) // only the CREATE entry
		})

		It("should return not found for an unknown advance", func() {
			_, err := repo.Transition(ctx, uuid.NewString(), func(adv *cashadvance.CashAdvance, totalPaid int64) error {
				return nil
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Summary", func() {
		It("should report zero paid and the full amount remaining with no payments", func() {
			a := newAdvance(3000000)

			summary, err := repo.Summary(ctx, a.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(summary.EmployeeName).To(Equal("Budi Santoso"))
			Expect(summary.AmountIDR).To(Equal(int64(3000000)))
			Expect(summary.TotalPaidIDR).To(Equal(int64(0)))
			Expect(summary.RemainingBalanceIDR).To(Equal(int64(3000000)))
		})

		It("should recompute the balance from recorded payments", func() {
			a := newAdvance(3000000)
			addPayment(a.ID, 1000000)
			addPayment(a.ID, 500000)

			summary, err := repo.Summary(ctx, a.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(summary.TotalPaidIDR).To(Equal(int64(1500000)))
			Expect(summary.RemainingBalanceIDR).To(Equal(int64(1500000)))
		})

		It("should list one summary per advance", func() {
			newAdvance(1000000)
			newAdvance(2000000)

			summaries, err := repo.ListSummaries(ctx, 20, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(HaveLen(2))
		})
	})

	Describe("ListByStatus", func() {
		It("should filter by status", func() {
			a := newAdvance(1000000)
			newAdvance(2000000)

			_, err := repo.Transition(ctx, a.ID, func(adv *cashadvance.CashAdvance, totalPaid int64) error {
				adv.Approve(actorID, nil, nil)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			pending, err := repo.ListByStatus(ctx, cashadvance.StatusPending, 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(1))

			approved, err := repo.ListByStatus(ctx, cashadvance.StatusApproved, 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(approved).To(HaveLen(1))
		})
	})
})
