package commands

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"automark_backend/internals/constants"
	subRepo "automark_backend/internals/features/exams/submissions/repository"
)

var statsStatuses = []string{
	constants.SubmissionSubmitted,
	constants.SubmissionGraded,
	constants.SubmissionGradingFailed,
	constants.SubmissionPublished,
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Submission counts per exam and status",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.ensureDB()
			if err != nil {
				return err
			}
			out, err := statsTable(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func statsTable(ctx context.Context, db *gorm.DB) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	counts, err := subRepo.CountByExamAndStatus(ctx, db)
	if err != nil {
		return "", err
	}
	if len(counts) == 0 {
		return "No submissions yet.", nil
	}

	type examRow struct {
		title  string
		counts map[string]int64
	}
	exams := map[string]*examRow{}
	for _, c := range counts {
		row, ok := exams[c.ExamCode]
		if !ok {
			row = &examRow{title: c.ExamTitle, counts: map[string]int64{}}
			exams[c.ExamCode] = row
		}
		row.counts[c.Status] += c.Total
	}
	codes := make([]string, 0, len(exams))
	for code := range exams {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	headers := append([]string{"Code", "Title"}, statsStatuses...)
	headers = append(headers, "Total")
	right := map[int]bool{}
	for i := 2; i < len(headers); i++ {
		right[i] = true
	}

	rows := make([][]string, 0, len(codes))
	for _, code := range codes {
		e := exams[code]
		row := []string{code, e.title}
		var total int64
		for _, s := range statsStatuses {
			row = append(row, strconv.FormatInt(e.counts[s], 10))
			total += e.counts[s]
		}
		row = append(row, strconv.FormatInt(total, 10))
		rows = append(rows, row)
	}
	return renderTable(headers, rows, right), nil
}
