package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/workboardhq/workboard/pkg/models"
)

// Login authenticates and installs the returned token as the session
// credential.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.LoginResult, error) {
	result, err := Do[models.LoginResult](ctx, c, http.MethodPost, "/login", req, nil)
	if err != nil {
		return models.LoginResult{}, err
	}
	if result.Token == "" {
		return models.LoginResult{}, fmt.Errorf("login succeeded but no token returned")
	}
	c.session.Set(result.Token)
	return result, nil
}

// Register creates an account. When the request carries a secret key the
// admin registration route is used instead, mirroring the backend's split.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	path := "/register"
	if req.SecretKey != "" {
		path = "/admin/register"
	}
	_, err := c.Call(ctx, http.MethodPost, path, req, nil)
	return err
}

// ChatUsers fetches the roster: identity fields only, presence is owned by
// the realtime channel.
func (c *Client) ChatUsers(ctx context.Context) ([]models.Contact, error) {
	return Do[[]models.Contact](ctx, c, http.MethodGet, "/chat-users", nil, nil)
}

// EmployeeQuery selects a page of the employee listing.
type EmployeeQuery struct {
	Page     int
	PageSize int
	Search   string
}

// Employees fetches one page of the admin employee listing.
func (c *Client) Employees(ctx context.Context, q EmployeeQuery) (models.EmployeePage, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 10
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("pageSize", strconv.Itoa(q.PageSize))
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	return Do[models.EmployeePage](ctx, c, http.MethodGet, "/admin/employees", nil, &CallOptions{Query: query})
}

// DepartmentSalaryAverages fetches the per-department salary aggregates.
func (c *Client) DepartmentSalaryAverages(ctx context.Context) ([]models.DepartmentSalary, error) {
	return Do[[]models.DepartmentSalary](ctx, c, http.MethodGet, "/admin/departments/salary-averages", nil, nil)
}

// DepartmentHeadcounts fetches the per-department headcount aggregates.
func (c *Client) DepartmentHeadcounts(ctx context.Context) ([]models.DepartmentHeadcount, error) {
	return Do[[]models.DepartmentHeadcount](ctx, c, http.MethodGet, "/admin/departments/headcounts", nil, nil)
}

// Attendance fetches the caller's attendance records for a month (YYYY-MM).
func (c *Client) Attendance(ctx context.Context, month string) ([]models.AttendanceRecord, error) {
	query := url.Values{}
	query.Set("month", month)
	return Do[[]models.AttendanceRecord](ctx, c, http.MethodGet, "/attendance", nil, &CallOptions{Query: query})
}

// SignIn records the start of today's attendance.
func (c *Client) SignIn(ctx context.Context) error {
	_, err := c.Call(ctx, http.MethodPost, "/sign-records/sign-in", nil, nil)
	return err
}

// SignOut records the end of today's attendance.
func (c *Client) SignOut(ctx context.Context) error {
	_, err := c.Call(ctx, http.MethodPost, "/sign-records/sign-out", nil, nil)
	return err
}

// ExportEmployees downloads the employee spreadsheet as raw bytes,
// bypassing envelope handling.
func (c *Client) ExportEmployees(ctx context.Context) ([]byte, error) {
	return c.Call(ctx, http.MethodGet, "/admin/employees/export", nil, &CallOptions{Binary: true})
}

// ImportEmployees uploads an employee spreadsheet as multipart form data.
func (c *Client) ImportEmployees(ctx context.Context, filename string, content io.Reader) error {
	_, err := c.Call(ctx, http.MethodPost, "/admin/employees/import", nil, &CallOptions{
		Multipart: &Multipart{Field: "file", Filename: filename, Content: content},
	})
	return err
}
