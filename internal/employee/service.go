package employee

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/cash-advance-management/internal"
)

// maxChainDepth bounds supervisor-chain walks. The data model does not
// guarantee acyclicity, so every traversal carries a visited set and a
// depth cap.
const maxChainDepth = 64

// Repository defines the data access methods for employees.
type Repository interface {
	Create(ctx context.Context, e *Employee) error
	GetByID(ctx context.Context, id string) (*Employee, error)
	List(ctx context.Context, limit, offset int) ([]*Employee, error)
	Save(ctx context.Context, e *Employee) error
	// Delete removes the employee and clears supervisor_id on all direct
	// reports in the same transaction.
	Delete(ctx context.Context, id string) error
	DirectReports(ctx context.Context, supervisorID string) ([]*Employee, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) CreateEmployee(ctx context.Context, dto CreateEmployeeDTO) (*Employee, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("employee validation failed", "error", err)
		return nil, err
	}

	if dto.SupervisorID != nil {
		if _, err := s.repo.GetByID(ctx, *dto.SupervisorID); err != nil {
			s.logger.Warn("supervisor not found", "supervisor_id", *dto.SupervisorID)
			return nil, internal.NewValidationError("supervisor does not exist", internal.ErrCodeEmployeeNotFound)
		}
	}

	e := &Employee{
		UserID:        dto.UserID,
		FirstName:     dto.FirstName,
		LastName:      dto.LastName,
		Department:    dto.Department,
		Position:      dto.Position,
		HireDate:      dto.HireDate,
		ContactNumber: dto.ContactNumber,
		SalaryIDR:     dto.SalaryIDR,
		SupervisorID:  dto.SupervisorID,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		s.logger.Error("failed to create employee", "error", err)
		return nil, err
	}

	s.logger.Info("employee created",
		"employee_id", e.ID,
		"department", e.Department,
		"supervisor_id", dto.SupervisorID)

	return e, nil
}

// Exists reports whether an employee record is present; other feature
// services use it for reference checks.
func (s *Service) Exists(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return internal.ErrEmployeeNotFound
	}
	return nil
}

func (s *Service) GetEmployeeByID(ctx context.Context, id string) (*Employee, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get employee", "error", err, "employee_id", id)
		return nil, internal.ErrEmployeeNotFound
	}
	return e, nil
}

func (s *Service) ListEmployees(ctx context.Context, limit, offset int) ([]*Employee, error) {
	employees, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err)
		return nil, err
	}
	return employees, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, id string, dto UpdateEmployeeDTO) (*Employee, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.ErrEmployeeNotFound
	}

	if dto.Department != nil {
		e.Department = *dto.Department
	}
	if dto.Position != nil {
		e.Position = *dto.Position
	}
	if dto.ContactNumber != nil {
		e.ContactNumber = *dto.ContactNumber
	}
	if dto.SalaryIDR != nil {
		e.SalaryIDR = *dto.SalaryIDR
	}
	if dto.ClearSupervisor {
		e.SupervisorID = nil
	}
	if dto.SupervisorID != nil {
		if err := s.checkSupervisorAssignment(ctx, id, *dto.SupervisorID); err != nil {
			return nil, err
		}
		e.SupervisorID = dto.SupervisorID
	}
	e.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, e); err != nil {
		s.logger.Error("failed to update employee", "error", err, "employee_id", id)
		return nil, err
	}

	s.logger.Info("employee updated", "employee_id", id)
	return e, nil
}

// DeleteEmployee removes the record. Direct reports keep their rows; their
// supervisor reference is cleared, never cascaded.
func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return internal.ErrEmployeeNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete employee", "error", err, "employee_id", id)
		return err
	}

	s.logger.Info("employee deleted", "employee_id", id)
	return nil
}

func (s *Service) DirectReports(ctx context.Context, supervisorID string) ([]*Employee, error) {
	if _, err := s.repo.GetByID(ctx, supervisorID); err != nil {
		return nil, internal.ErrEmployeeNotFound
	}
	return s.repo.DirectReports(ctx, supervisorID)
}

// SupervisorChain walks supervisor references from the employee up to the
// root and returns them in order, nearest first.
func (s *Service) SupervisorChain(ctx context.Context, id string) ([]*Employee, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.ErrEmployeeNotFound
	}

	var chain []*Employee
	visited := map[string]bool{e.ID: true}

	for depth := 0; e.SupervisorID != nil && depth < maxChainDepth; depth++ {
		next, err := s.repo.GetByID(ctx, *e.SupervisorID)
		if err != nil {
			// dangling reference, treat the walk as complete
			break
		}
		if visited[next.ID] {
			s.logger.Warn("supervisor cycle detected during ascent", "employee_id", id, "at", next.ID)
			break
		}
		visited[next.ID] = true
		chain = append(chain, next)
		e = next
	}

	return chain, nil
}

// AllReports returns the transitive reports of an employee, breadth-first.
func (s *Service) AllReports(ctx context.Context, id string) ([]*Employee, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, internal.ErrEmployeeNotFound
	}

	var all []*Employee
	visited := map[string]bool{id: true}
	queue := []string{id}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		reports, err := s.repo.DirectReports(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, r := range reports {
			if visited[r.ID] {
				continue
			}
			visited[r.ID] = true
			all = append(all, r)
			queue = append(queue, r.ID)
		}
	}

	return all, nil
}

// checkSupervisorAssignment rejects a supervisor that does not exist, is
// the employee itself, or sits below the employee in the hierarchy.
func (s *Service) checkSupervisorAssignment(ctx context.Context, employeeID, supervisorID string) error {
	if employeeID == supervisorID {
		return internal.ErrSupervisorCycle
	}

	candidate, err := s.repo.GetByID(ctx, supervisorID)
	if err != nil {
		return internal.NewValidationError("supervisor does not exist", internal.ErrCodeEmployeeNotFound)
	}

	// ascend from the candidate; reaching the employee means the candidate
	// is (transitively) a report of the employee
	visited := map[string]bool{candidate.ID: true}
	for depth := 0; candidate.SupervisorID != nil && depth < maxChainDepth; depth++ {
		if *candidate.SupervisorID == employeeID {
			s.logger.Warn("supervisor assignment rejected: cycle",
				"employee_id", employeeID,
				"supervisor_id", supervisorID)
			return internal.ErrSupervisorCycle
		}
		next, err := s.repo.GetByID(ctx, *candidate.SupervisorID)
		if err != nil {
			break
		}
		if visited[next.ID] {
			break
		}
		visited[next.ID] = true
		candidate = next
	}

	return nil
}
