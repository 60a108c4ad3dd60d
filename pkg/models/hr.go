package models

// Employee is a single employee record as returned by the admin employee
// listing.
type Employee struct {
	EmpID    int64   `json:"emp_id"`
	Username string  `json:"username"`
	Position string  `json:"position"`
	DepID    int64   `json:"dep_id"`
	Gender   string  `json:"gender"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Salary   float64 `json:"salary"`
	Status   string  `json:"status"`
}

// EmployeePage is one page of the employee listing.
type EmployeePage struct {
	Data  []Employee `json:"data"`
	Total int        `json:"total"`
}

// DepartmentSalary is the per-department average salary aggregate.
type DepartmentSalary struct {
	DepID     int64   `json:"dep_id"`
	Depart    string  `json:"depart"`
	AvgSalary float64 `json:"avg_salary"`
}

// DepartmentHeadcount is the per-department headcount aggregate.
type DepartmentHeadcount struct {
	DepID      int64   `json:"dep_id"`
	Depart     string  `json:"depart"`
	Headcount  int     `json:"headcount"`
	Percentage float64 `json:"percentage"`
}

// AttendanceRecord is one day of sign-in/sign-out state for the current user.
type AttendanceRecord struct {
	Date        string `json:"date"` // YYYY-MM-DD
	SignInTime  string `json:"sign_in_time"`
	SignOutTime string `json:"sign_out_time"`
	Status      string `json:"status"`
}
