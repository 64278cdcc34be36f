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
	"github.com/frahmantamala/cash-advance-management/internal/core/audit"
	"github.com/frahmantamala/cash-advance-management/internal/employee"
)

func TestEmployeeRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "EmployeeRepository Suite")
}

var _ = Describe("EmployeeRepository", func() {
	var (
		db   *gorm.DB
		repo employee.Repository
		ctx  context.Context
	)

	newEmployee := func(firstName string, supervisorID *string) *employee.Employee {
		e := &employee.Employee{
			FirstName:    firstName,
			LastName:     "Test",
			HireDate:     time.Now(),
			SalaryIDR:    10000000,
			SupervisorID: supervisorID,
		}
		Expect(repo.Create(ctx, e)).To(Succeed())
		return e
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		Expect(db.Use(audit.NewPlugin(logger))).To(Succeed())

		err = db.AutoMigrate(&employee.Employee{}, &audit.Log{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewEmployeeRepository(db)
		ctx = internal.ContextWithActor(context.Background(), internal.Actor{
			UserID: uuid.NewString(),
		})
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Delete", func() {
		It("should clear the supervisor reference on reports, keeping their rows", func() {
			boss := newEmployee("Boss", nil)
			reportA := newEmployee("ReportA", &boss.ID)
			reportB := newEmployee("ReportB", &boss.ID)

			Expect(repo.Delete(ctx, boss.ID)).To(Succeed())

			_, err := repo.GetByID(ctx, boss.ID)
			Expect(err).To(HaveOccurred())

			for _, id := range []string{reportA.ID, reportB.ID} {
				kept, err := repo.GetByID(ctx, id)
				Expect(err).NotTo(HaveOccurred())
				Expect(kept.SupervisorID).To(BeNil())
			}
		})

		It("should audit the delete and each supervisor clearing", func() {
			boss := newEmployee("Boss", nil)
			report := newEmployee("Report", &boss.ID)

			Expect(repo.Delete(ctx, boss.ID)).To(Succeed())

			var deleteEntries []*audit.Log
			err := db.Where("entity_id = ? AND action = ?", boss.ID, audit.ActionDelete).Find(&deleteEntries).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(deleteEntries).To(HaveLen(1))
			Expect(deleteEntries[0].OldValues).NotTo(BeNil())

			var updateEntries []*audit.Log
			err = db.Where("entity_id = ? AND action = ?", report.ID, audit.ActionUpdate).Find(&updateEntries).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(updateEntries).To(HaveLen(1))
		})
	})

	Describe("DirectReports", func() {
		It("should only return employees reporting to the supervisor", func() {
			boss := newEmployee("Boss", nil)
			newEmployee("ReportA", &boss.ID)
			newEmployee("ReportB", &boss.ID)
			newEmployee("Outsider", nil)

			reports, err := repo.DirectReports(ctx, boss.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(reports).To(HaveLen(2))
		})
	})

	Describe("Save", func() {
		It("should record old and new values in the audit trail", func() {
			e := newEmployee("Budi", nil)

			e.Department = "Engineering"
			Expect(repo.Save(ctx, e)).To(Succeed())

			var entries []*audit.Log
			err := db.Where("entity_id = ? AND action = ?", e.ID, audit.ActionUpdate).Find(&entries).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(string(entries[0].NewValues)).To(ContainSubstring("Engineering"))
		})
	})
})
