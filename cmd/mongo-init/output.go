package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/madkins23/mongo-init/bootstrap"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

func setNoColor(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

func printResult(w io.Writer, result *bootstrap.Result) {
	for _, step := range result.Steps {
		switch step.Status {
		case bootstrap.StepSkipped:
			warningColor.Fprintf(w, "SKIP  ")
		default:
			successColor.Fprintf(w, "OK    ")
		}
		fmt.Fprintln(w, step.Name)
	}
	if result.MetadataID != nil {
		fmt.Fprintf(w, "metadata id %v created at %s\n", result.MetadataID, result.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"))
	}
}

func printReport(w io.Writer, report *bootstrap.Report) {
	headerColor.Fprintf(w, "Database %s\n", report.Database)
	for _, check := range report.Checks {
		switch check.Status {
		case bootstrap.CheckPass:
			successColor.Fprintf(w, "PASS  ")
		case bootstrap.CheckWarn:
			warningColor.Fprintf(w, "WARN  ")
		default:
			errorColor.Fprintf(w, "FAIL  ")
		}
		fmt.Fprintf(w, "%s: %s\n", check.Name, check.Detail)
	}
}
