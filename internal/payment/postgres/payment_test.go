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

func TestPaymentRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PaymentRepository Suite")
}

var _ = Describe("PaymentRepository", func() {
	var (
		db        *gorm.DB
		repo      payment.Repository
		ctx       context.Context
		advanceID string
	)

	newPayment := func(amount int64) *payment.Payment {
		return &payment.Payment{
			CashAdvanceID: advanceID,
			AmountIDR:     amount,
			PaymentType:   payment.TypeCash,
			PaymentDate:   time.Now(),
		}
	}

	countPayments := func() int64 {
		var count int64
		err := db.Model(&payment.Payment{}).Where("cash_advance_id = ?", advanceID).Count(&count).Error
		Expect(err).NotTo(HaveOccurred())
		return count
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		Expect(db.Use(audit.NewPlugin(logger))).To(Succeed())

		err = db.AutoMigrate(&employee.Employee{}, &cashadvance.CashAdvance{}, &payment.Payment{}, &audit.Log{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewPaymentRepository(db)
		ctx = internal.ContextWithActor(context.Background(), internal.Actor{
			UserID: uuid.NewString(),
		})

		e := &employee.Employee{
			FirstName: "Budi",
			LastName:  "Santoso",
			HireDate:  time.Now(),
			SalaryIDR: 12000000,
		}
		Expect(db.WithContext(ctx).Create(e).Error).NotTo(HaveOccurred())

		a := &cashadvance.CashAdvance{
			EmployeeID: e.ID,
			AmountIDR:  5000000,
			Reason:     "school fees",
			Status:     cashadvance.StatusApproved,
		}
		Expect(db.WithContext(ctx).Create(a).Error).NotTo(HaveOccurred())
		advanceID = a.ID
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("RecordForAdvance", func() {
		It("should hand the advance state and running total to the check before inserting", func() {
			var seen payment.AdvanceState
			err := repo.RecordForAdvance(ctx, newPayment(2000000), func(state payment.AdvanceState) error {
				seen = state
				return nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(seen.Status).To(Equal(cashadvance.StatusApproved))
			Expect(seen.AmountIDR).To(Equal(int64(5000000)))
			Expect(seen.TotalPaidIDR).To(Equal(int64(0)))
			Expect(countPayments()).To(Equal(int64(1)))
		})

		It("should include earlier payments in the total the check sees", func() {
			Expect(repo.RecordForAdvance(ctx, newPayment(2000000), func(payment.AdvanceState) error {
				return nil
			})).To(Succeed())

			var seen int64
			err := repo.RecordForAdvance(ctx, newPayment(500000), func(state payment.AdvanceState) error {
				seen = state.TotalPaidIDR
				return nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal(int64(2000000)))
		})

		It("should insert no row when the check fails", func() {
			err := repo.RecordForAdvance(ctx, newPayment(6000000), func(state payment.AdvanceState) error {
				return internal.NewBalanceError("would exceed principal", internal.ErrCodeBalanceExceeded)
			})

			Expect(err).To(HaveOccurred())
			Expect(countPayments()).To(Equal(int64(0)))

			total, err := repo.TotalPaid(ctx, advanceID)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(0)))
		})

		It("should fail for an unknown advance", func() {
			p := newPayment(1000000)
			p.CashAdvanceID = uuid.NewString()

			err := repo.RecordForAdvance(ctx, p, func(payment.AdvanceState) error {
				return nil
			})

			Expect(err).To(HaveOccurred())
		})

		It("should leave the audit trail untouched", func() {
			Expect(repo.RecordForAdvance(ctx, newPayment(1000000), func(payment.AdvanceState) error {
				return nil
			})).To(Succeed())

			var entries []*audit.Log
			err := db.Where("entity_type = ?", "payments").Find(&entries).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("TotalPaid", func() {
		It("should sum all payments for the advance", func() {
			for _, amount := range []int64{1000000, 500000, 250000} {
				Expect(repo.RecordForAdvance(ctx, newPayment(amount), func(payment.AdvanceState) error {
					return nil
				})).To(Succeed())
			}

			total, err := repo.TotalPaid(ctx, advanceID)

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1750000)))
		})
	})

	Describe("ListByAdvance", func() {
		It("should only return payments for the advance", func() {
			Expect(repo.RecordForAdvance(ctx, newPayment(1000000), func(payment.AdvanceState) error {
				return nil
			})).To(Succeed())

			other := &payment.Payment{
				CashAdvanceID: uuid.NewString(),
				AmountIDR:     999,
				PaymentType:   payment.TypeBankTransfer,
				PaymentDate:   time.Now(),
			}
			Expect(db.Create(other).Error).NotTo(HaveOccurred())

			payments, err := repo.ListByAdvance(ctx, advanceID)

			Expect(err).NotTo(HaveOccurred())
			Expect(payments).To(HaveLen(1))
			Expect(payments[0].AmountIDR).To(Equal(int64(1000000)))
		})
	})
})
