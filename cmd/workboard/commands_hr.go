// commands_hr.go defines the HR data commands: employees, departments,
// attendance, export, import.
package main

import (
	"time"

	"github.com/spf13/cobra"
)

func buildEmployeesCmd() *cobra.Command {
	var (
		page     int
		pageSize int
		search   string
	)

	cmd := &cobra.Command{
		Use:   "employees",
		Short: "List employees",
		Args:  cobra.NoArgs,
		Example: `  # First page
  workboard employees

  # Search by name
  workboard employees --search 张 --page 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmployees(cmd.Context(), page, pageSize, search)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 10, "Rows per page")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by username")
	return cmd
}

func buildDepartmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "departments",
		Short: "Department aggregates",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "salary",
			Short: "Average salary per department",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDepartmentSalary(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "headcount",
			Short: "Headcount and share per department",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDepartmentHeadcount(cmd.Context())
			},
		},
	)
	return cmd
}

func buildAttendanceCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Attendance records and sign-in/out",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show attendance for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttendanceShow(cmd.Context(), month)
		},
	}
	show.Flags().StringVarP(&month, "month", "m", time.Now().Format("2006-01"), "Month as YYYY-MM")

	cmd.AddCommand(
		show,
		&cobra.Command{
			Use:   "sign-in",
			Short: "Record sign-in for today",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSignIn(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "sign-out",
			Short: "Record sign-out for today",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSignOut(cmd.Context())
			},
		},
	)
	return cmd
}

func buildExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the employee spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "employees.xlsx", "Destination file")
	return cmd
}

func buildImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Upload an employee spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args[0])
		},
	}
}
