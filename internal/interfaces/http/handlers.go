package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amalthea-hq/expensehub/internal/application/approval"
	"github.com/amalthea-hq/expensehub/internal/application/service"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
	"github.com/amalthea-hq/expensehub/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	users    service.UserService
	expenses service.ExpenseService
	policies service.PolicyService
	receipts service.ReceiptService
	reports  service.ReportService
	currency service.CurrencyService
	workflow *approval.Controller
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	users service.UserService,
	expenses service.ExpenseService,
	policies service.PolicyService,
	receipts service.ReceiptService,
	reports service.ReportService,
	currency service.CurrencyService,
	workflow *approval.Controller,
	logger Logger,
) *Handlers {
	return &Handlers{
		users:    users,
		expenses: expenses,
		policies: policies,
		receipts: receipts,
		reports:  reports,
		currency: currency,
		workflow: workflow,
		logger:   logger,
	}
}

// Response is the standard JSON envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Success: false, Error: msg})
}

// respondError maps domain errors onto HTTP statuses
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, approval.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, approval.ErrNotAuthorized):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, approval.ErrNoPendingStep),
		errors.Is(err, approval.ErrConflict),
		errors.Is(err, workflow.ErrInvalidTransition):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, approval.ErrCollaboratorUnavailable),
		errors.Is(err, service.ErrRateUnavailable):
		fail(c, http.StatusBadGateway, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrCompanyTaken):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidPolicy),
		errors.Is(err, service.ErrUnsupportedReceipt):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Errorw("Request failed", "path", c.FullPath(), "error", err)
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Signup handles POST /api/v1/auth/signup
func (h *Handlers) Signup(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Signup(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, user)
}

type createUserRequest struct {
	CompanyID int64 `json:"company_id" binding:"required"`
	service.CreateUserRequest
}

// CreateUser handles POST /api/v1/users
func (h *Handlers) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.CompanyID, req.CreateUserRequest)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, user)
}

type updateManagerRequest struct {
	CompanyID int64  `json:"company_id" binding:"required"`
	ManagerID *int64 `json:"manager_id"`
}

// UpdateManager handles PATCH /api/v1/users/:id/manager
func (h *Handlers) UpdateManager(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	var req updateManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.users.UpdateManager(c.Request.Context(), req.CompanyID, id, req.ManagerID); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"updated": true})
}

// ListUsers handles GET /api/v1/companies/:id/users
func (h *Handlers) ListUsers(c *gin.Context) {
	companyID, valid := pathID(c)
	if !valid {
		return
	}

	users, err := h.users.ListUsers(c.Request.Context(), companyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, users)
}

type createExpenseRequest struct {
	EmployeeID int64 `json:"employee_id" binding:"required"`
	service.CreateExpenseRequest
}

// CreateExpense handles POST /api/v1/expenses
func (h *Handlers) CreateExpense(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := h.expenses.Create(c.Request.Context(), req.EmployeeID, req.CreateExpenseRequest)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, expense)
}

// GetExpense handles GET /api/v1/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	expense, err := h.expenses.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if expense == nil {
		fail(c, http.StatusNotFound, "expense not found")
		return
	}
	ok(c, http.StatusOK, expense)
}

// employeeExpensesResponse pairs the list with per-status totals
type employeeExpensesResponse struct {
	Expenses []*entity.Expense      `json:"expenses"`
	Totals   *service.ExpenseTotals `json:"totals"`
}

// ListEmployeeExpenses handles GET /api/v1/employees/:id/expenses
func (h *Handlers) ListEmployeeExpenses(c *gin.Context) {
	employeeID, valid := pathID(c)
	if !valid {
		return
	}

	expenses, err := h.expenses.ListMine(c.Request.Context(), employeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	totals, err := h.expenses.Totals(c.Request.Context(), employeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ok(c, http.StatusOK, employeeExpensesResponse{Expenses: expenses, Totals: totals})
}

// ListCompanyExpenses handles GET /api/v1/companies/:id/expenses
func (h *Handlers) ListCompanyExpenses(c *gin.Context) {
	companyID, valid := pathID(c)
	if !valid {
		return
	}

	expenses, err := h.expenses.ListCompany(c.Request.Context(), companyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, expenses)
}

// CompanyExpenseReport handles GET /api/v1/companies/:id/expenses/report
func (h *Handlers) CompanyExpenseReport(c *gin.Context) {
	companyID, valid := pathID(c)
	if !valid {
		return
	}

	report, err := h.reports.CompanyReport(c.Request.Context(), companyID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("expenses-%d-%s.xlsx", companyID, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		report)
}

// SubmitExpense handles POST /api/v1/expenses/:id/submit
func (h *Handlers) SubmitExpense(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	decision, err := h.workflow.Submit(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, decision)
}

type takeActionRequest struct {
	ApproverID int64  `json:"approver_id" binding:"required"`
	Action     string `json:"action" binding:"required,oneof=Approved Rejected"`
	Comments   string `json:"comments"`
}

// TakeAction handles POST /api/v1/expenses/:id/actions
func (h *Handlers) TakeAction(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	var req takeActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	decision, err := h.workflow.TakeAction(
		c.Request.Context(), id, req.ApproverID, entity.ActionType(req.Action), req.Comments)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if decision.Status == entity.StatusApproved || decision.Status == entity.StatusRejected {
		h.expenses.NotifyStatus(c.Request.Context(), id)
	}

	ok(c, http.StatusOK, decision)
}

// ListActions handles GET /api/v1/expenses/:id/actions
func (h *Handlers) ListActions(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	actions, err := h.expenses.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, actions)
}

// PendingApprovals handles GET /api/v1/approvers/:id/pending
func (h *Handlers) PendingApprovals(c *gin.Context) {
	approverID, valid := pathID(c)
	if !valid {
		return
	}

	pending, err := h.workflow.PendingForApprover(c.Request.Context(), approverID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, pending)
}

type upsertPolicyRequest struct {
	CompanyID int64 `json:"company_id" binding:"required"`
	service.UpsertPolicyRequest
}

// UpsertPolicy handles PUT /api/v1/policies
func (h *Handlers) UpsertPolicy(c *gin.Context) {
	var req upsertPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	policy, err := h.policies.Upsert(c.Request.Context(), req.CompanyID, req.UpsertPolicyRequest)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, policy)
}

// GetPolicy handles GET /api/v1/policies/:id
func (h *Handlers) GetPolicy(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	policy, err := h.policies.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if policy == nil {
		fail(c, http.StatusNotFound, "policy not found")
		return
	}
	ok(c, http.StatusOK, policy)
}

// ListPolicies handles GET /api/v1/companies/:id/policies
func (h *Handlers) ListPolicies(c *gin.Context) {
	companyID, valid := pathID(c)
	if !valid {
		return
	}

	policies, err := h.policies.List(c.Request.Context(), companyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, policies)
}

// maxReceiptSize bounds receipt uploads to 10 MiB
const maxReceiptSize = 10 << 20

// ParseReceipt handles POST /api/v1/receipts/parse (multipart form with
// "employee_id" and "receipt" file field)
func (h *Handlers) ParseReceipt(c *gin.Context) {
	employeeID, err := strconv.ParseInt(c.PostForm("employee_id"), 10, 64)
	if err != nil || employeeID <= 0 {
		fail(c, http.StatusBadRequest, "invalid employee_id")
		return
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		fail(c, http.StatusBadRequest, "missing receipt file")
		return
	}
	if fileHeader.Size > maxReceiptSize {
		fail(c, http.StatusRequestEntityTooLarge, "receipt too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(c, err)
		return
	}

	parsed, err := h.receipts.Parse(c.Request.Context(), employeeID, fileHeader.Filename, data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, parsed)
}

// ListCountries handles GET /api/v1/countries
func (h *Handlers) ListCountries(c *gin.Context) {
	countries, err := h.currency.Countries(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, countries)
}

// ListRates handles GET /api/v1/rates/:base
func (h *Handlers) ListRates(c *gin.Context) {
	base := c.Param("base")
	if len(base) != 3 {
		fail(c, http.StatusBadRequest, "invalid base currency")
		return
	}

	rates, err := h.currency.Rates(c.Request.Context(), base)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, rates)
}
