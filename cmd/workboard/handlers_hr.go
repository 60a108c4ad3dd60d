// handlers_hr.go implements the HR data command handlers.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/workboardhq/workboard/internal/api"
)

func runEmployees(ctx context.Context, page, pageSize int, search string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	result, err := a.client.Employees(ctx, api.EmployeeQuery{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tPOSITION\tDEPT\tGENDER\tSALARY\tSTATUS")
	for _, e := range result.Data {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%.2f\t%s\n",
			e.EmpID, e.Username, e.Position, e.DepID, e.Gender, e.Salary, e.Status)
	}
	w.Flush()
	fmt.Printf("\n%d of %d employees (page %d)\n", len(result.Data), result.Total, page)
	return nil
}

func runDepartmentSalary(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	rows, err := a.client.DepartmentSalaryAverages(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDEPARTMENT\tAVG SALARY")
	for _, d := range rows {
		fmt.Fprintf(w, "%d\t%s\t%.2f\n", d.DepID, d.Depart, d.AvgSalary)
	}
	return w.Flush()
}

func runDepartmentHeadcount(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	rows, err := a.client.DepartmentHeadcounts(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDEPARTMENT\tHEADCOUNT\tSHARE")
	for _, d := range rows {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.1f%%\n", d.DepID, d.Depart, d.Headcount, d.Percentage)
	}
	return w.Flush()
}

func runAttendanceShow(ctx context.Context, month string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	records, err := a.client.Attendance(ctx, month)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("No attendance records for %s\n", month)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tSIGN IN\tSIGN OUT\tSTATUS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Date, r.SignInTime, r.SignOutTime, r.Status)
	}
	return w.Flush()
}

func runSignIn(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.client.SignIn(ctx); err != nil {
		return err
	}
	fmt.Println("Signed in")
	return nil
}

func runSignOut(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.client.SignOut(ctx); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func runExport(ctx context.Context, output string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	blob, err := a.client.ExportEmployees(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, blob, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(blob), output)
	return nil
}

func runImport(ctx context.Context, path string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	if err := a.client.ImportEmployees(ctx, filepath.Base(path), f); err != nil {
		return err
	}
	fmt.Printf("Imported %s\n", path)
	return nil
}
