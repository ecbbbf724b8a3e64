package domain

// SubjectType distinguishes the two portal login populations.
type SubjectType string

const (
	SubjectTypeCustomer SubjectType = "CUSTOMER"
	SubjectTypeEmployee SubjectType = "EMPLOYEE"
)
