package directory

import (
	"context"
	"fmt"

	"github.com/amalthea-hq/expensehub/internal/application/port"
)

// Directory implements port.Directory on top of the user repository.
// The workflow engine stays decoupled from how the org chart is stored.
type Directory struct {
	users port.UserRepository
}

// New creates a directory backed by the user repository
func New(users port.UserRepository) *Directory {
	return &Directory{users: users}
}

// CompanyOf returns the company the employee belongs to
func (d *Directory) CompanyOf(ctx context.Context, employeeID int64) (int64, error) {
	user, err := d.users.GetByID(ctx, employeeID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve company: %w", err)
	}
	if user == nil {
		return 0, fmt.Errorf("employee %d not found", employeeID)
	}
	return user.CompanyID, nil
}

// ManagerOf returns the employee's direct manager, nil when unset
func (d *Directory) ManagerOf(ctx context.Context, employeeID int64) (*int64, error) {
	user, err := d.users.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manager: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("employee %d not found", employeeID)
	}
	return user.ManagerID, nil
}

// Verify interface compliance
var _ port.Directory = (*Directory)(nil)
