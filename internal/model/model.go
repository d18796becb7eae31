package model

import (
	"time"
)

type Role string

const (
	RoleReader     Role = "reader"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

type User struct {
	UserID       int       `json:"userId" db:"user_id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Permissions  *string   `json:"permissions,omitempty" db:"permissions"`
}

type Book struct {
	BookID            int       `json:"bookId" db:"book_id"`
	Title             string    `json:"title" db:"title"`
	Author            string    `json:"author" db:"author"`
	ISBN              *string   `json:"isbn,omitempty" db:"isbn"`
	Quantity          int       `json:"quantity" db:"quantity"`
	AvailableQuantity int       `json:"availableQuantity" db:"available_quantity"`
	AddedAt           time.Time `json:"addedAt" db:"added_at"`
}

type Loan struct {
	LoanID     int        `json:"loanId" db:"loan_id"`
	UserID     int        `json:"userId" db:"user_id"`
	BookID     int        `json:"bookId" db:"book_id"`
	LoanDate   time.Time  `json:"loanDate" db:"loan_date"`
	DueDate    time.Time  `json:"dueDate" db:"due_date"`
	ReturnDate *time.Time `json:"returnDate,omitempty" db:"return_date"`
}

// Open reports whether the loan has no return date recorded.
func (l Loan) Open() bool {
	return l.ReturnDate == nil
}

// Date marshals as yyyy-mm-dd, matching the date columns of the schema.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		return nil
	}
	t, err := time.Parse(`"`+time.DateOnly+`"`, s)
	if err != nil {
		if t, err = time.Parse(`"`+time.RFC3339+`"`, s); err != nil {
			return err
		}
	}
	d.Time = t
	return nil
}

type CreateUserRequest struct {
	Username     string  `json:"username" validate:"required"`
	PasswordHash string  `json:"passwordHash" validate:"required"`
	Role         Role    `json:"role" validate:"omitempty,oneof=reader admin superadmin"`
	Phone        *string `json:"phone"`
	Permissions  *string `json:"permissions"`
}

type CreateBookRequest struct {
	Title    string  `json:"title" validate:"required"`
	Author   string  `json:"author" validate:"required"`
	ISBN     *string `json:"isbn"`
	Quantity int     `json:"quantity" validate:"required,gte=1"`
}

type UpdateBookRequest struct {
	Title    *string `json:"title"`
	Author   *string `json:"author"`
	ISBN     *string `json:"isbn"`
	Quantity *int    `json:"quantity" validate:"omitempty,gte=0"`
}

type CreateLoanRequest struct {
	UserID   int  `json:"userId" validate:"required"`
	BookID   int  `json:"bookId" validate:"required"`
	LoanDate Date `json:"loanDate"`
	DueDate  Date `json:"dueDate"`
}

type ReturnLoanRequest struct {
	Date Date `json:"date" validate:"required"`
}

type LoanFilter struct {
	UserID   *int
	OnlyOpen bool
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type BookSearch struct {
	Title  string
	Author string
	Page   int
	Size   int
}

type ListBooks struct {
	Paging
	Items []Book `json:"items"`
}

type Stats struct {
	TotalTitles int `json:"totalTitles" db:"total_titles"`
	TotalCopies int `json:"totalCopies" db:"total_copies"`
	OpenLoans   int `json:"openLoans" db:"open_loans"`
	TotalUsers  int `json:"totalUsers" db:"total_users"`
}

type LoanEventType string

const (
	LoanCreated  LoanEventType = "loan.created"
	LoanReturned LoanEventType = "loan.returned"
)

type LoanEvent struct {
	EventUID string        `json:"eventUid"`
	Type     LoanEventType `json:"type"`
	Loan     Loan          `json:"loan"`
	At       time.Time     `json:"at"`
}
