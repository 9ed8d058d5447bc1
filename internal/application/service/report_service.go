package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

// ReportService renders company expense data as spreadsheet downloads
type ReportService interface {
	CompanyReport(ctx context.Context, companyID int64) ([]byte, error)
}

type reportServiceImpl struct {
	expenses  port.ExpenseRepository
	users     port.UserRepository
	companies port.CompanyRepository
	logger    Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	expenses port.ExpenseRepository,
	users port.UserRepository,
	companies port.CompanyRepository,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		expenses:  expenses,
		users:     users,
		companies: companies,
		logger:    logger,
	}
}

var reportHeaders = []string{
	"ID", "Employee", "Category", "Description", "Date",
	"Amount", "Currency", "Amount (Company)", "Status",
}

// CompanyReport renders every expense of the company as an xlsx file
func (s *reportServiceImpl) CompanyReport(ctx context.Context, companyID int64) ([]byte, error) {
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("company %d not found", companyID)
	}

	expenses, err := s.expenses.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	names, err := s.employeeNames(ctx, companyID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Expenses"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		s.setCell(f, sheet, cell, header)
	}

	var totalCompanyCents int64
	for row, e := range expenses {
		values := []interface{}{
			e.ID,
			names[e.EmployeeID],
			e.Category,
			e.Description,
			e.ExpenseDate.Format("2006-01-02"),
			centsToUnits(e.AmountCents),
			e.CurrencyCode,
			centsToUnits(e.AmountCompanyCents),
			e.Status,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			s.setCell(f, sheet, cell, value)
		}
		if e.Status == entity.StatusApproved {
			totalCompanyCents += e.AmountCompanyCents
		}
	}

	totalRow := len(expenses) + 3
	labelCell, _ := excelize.CoordinatesToCellName(7, totalRow)
	valueCell, _ := excelize.CoordinatesToCellName(8, totalRow)
	s.setCell(f, sheet, labelCell, fmt.Sprintf("Total approved (%s)", company.CurrencyCode))
	s.setCell(f, sheet, valueCell, centsToUnits(totalCompanyCents))

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	s.logger.Infow("Company report generated",
		"company_id", companyID,
		"expenses", len(expenses))
	return buf.Bytes(), nil
}

func (s *reportServiceImpl) employeeNames(ctx context.Context, companyID int64) (map[int64]string, error) {
	users, err := s.users.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	return names, nil
}

func (s *reportServiceImpl) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		s.logger.Warnw("Failed to set report cell", "cell", cell, "error", err)
	}
}

func centsToUnits(cents int64) float64 {
	return float64(cents) / 100
}
