// Package store provides tenant-scoped read access to the insurance
// administration datastore. Rows are owned and written by the CRUD services;
// this package only reads projections of them.
package store

import "time"

// Policy statuses
const (
	PolicyActive         = "ACTIVE"
	PolicyPendingRenewal = "PENDING_RENEWAL"
	PolicyExpired        = "EXPIRED"
	PolicyCancelled      = "CANCELLED"
)

// Payment statuses
const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentOverdue = "OVERDUE"
)

// Application statuses
const (
	ApplicationSubmitted = "SUBMITTED"
	ApplicationInReview  = "IN_REVIEW"
	ApplicationNeedsInfo = "NEEDS_INFO"
	ApplicationApproved  = "APPROVED"
	ApplicationRejected  = "REJECTED"
	ApplicationActive    = "ACTIVE"
)

// Corporate policy statuses
const (
	CorporatePending   = "PENDING"
	CorporateActive    = "ACTIVE"
	CorporateSuspended = "SUSPENDED"
	CorporateExpired   = "EXPIRED"
	CorporateCancelled = "CANCELLED"
)

// Support ticket statuses
const (
	TicketOpen       = "OPEN"
	TicketInProgress = "IN_PROGRESS"
	TicketResolved   = "RESOLVED"
	TicketClosed     = "CLOSED"
)

// Company is a corporate customer with counts of related records.
type Company struct {
	ID              string
	Name            string
	TaxID           string
	Email           string
	Phone           string
	Address         string
	EmployeeCount   int
	PolicyCount     int
	DepartmentCount int
	CreatedAt       time.Time
}

// Department belongs to a company.
type Department struct {
	ID          string
	Name        string
	CompanyID   string
	CompanyName string
}

// Employee is an insured person working for a company.
type Employee struct {
	ID             string
	FirstName      string
	LastName       string
	BirthDate      *time.Time
	CompanyID      string
	CompanyName    string
	DepartmentID   string
	DepartmentName string
	CreatedAt      time.Time
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// Policy is an individual policy issued to an employee of a company.
type Policy struct {
	ID           string
	PolicyNumber string
	Type         string
	Status       string
	StartDate    time.Time
	EndDate      time.Time
	Premium      float64
	AutoRenew    bool
	EmployeeID   string
	EmployeeName string
	CompanyID    string
	CompanyName  string
	DepartmentID string
	CreatedAt    time.Time
}

// Payment is one installment of a policy, joined with its policy, company
// and employee.
type Payment struct {
	ID           string
	Installment  int
	Amount       float64
	DueDate      time.Time
	PaidDate     *time.Time
	Status       string
	PolicyID     string
	PolicyNumber string
	CompanyID    string
	CompanyName  string
	EmployeeID   string
	EmployeeName string
	DepartmentID string
}

// Application is a submitted insurance application.
type Application struct {
	ID          string
	Status      string
	CompanyName string
	PackageName string
	CarrierName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CorporatePolicy is a company-level master policy.
type CorporatePolicy struct {
	ID          string
	CompanyID   string
	CompanyName string
	Status      string
	EndDate     *time.Time
	CreatedAt   time.Time
}

// SupportTicket is a customer support request.
type SupportTicket struct {
	ID        string
	Category  string
	Status    string
	Subject   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Open reports whether the ticket still needs attention.
func (t SupportTicket) Open() bool {
	return t.Status == TicketOpen || t.Status == TicketInProgress
}

// BulkOperation is a bulk upload or bulk update job.
type BulkOperation struct {
	ID          string
	Type        string
	Status      string
	TotalRows   int
	SuccessRows int
	FailedRows  int
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Activity is an entry of the append-only activity log.
type Activity struct {
	ID          string
	Type        string
	Title       string
	Description string
	CreatedAt   time.Time
}

// Group is one bucket of a group-by aggregation.
type Group struct {
	Key   string
	Count int
	Sum   float64
}
