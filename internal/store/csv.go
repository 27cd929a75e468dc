package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"pelviu-funnel/internal/models"
)

// CSVHeaders is the export column order.
var CSVHeaders = []string{
	"ID", "Date", "Gender", "Age", "Score",
	"Recommendation", "Treatment", "Name", "Email",
	"Phone", "Answers(JSON)",
}

// CSVDateLayout renders record timestamps in UTC.
const CSVDateLayout = "2006-01-02 15:04:05"

// ExportFilename is the download name for an export taken at now.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("pelviu_leads_%s.csv", now.UTC().Format("2006-01-02"))
}

// WriteCSV writes the header row and one row per record. Every data cell is
// quoted and embedded quotes are doubled. Rows are separated by "\n".
func WriteCSV(w io.Writer, records []models.LeadRecord) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(strings.Join(CSVHeaders, ",")); err != nil {
		return err
	}

	for _, r := range records {
		answers, err := json.Marshal(r.Answers)
		if err != nil {
			return fmt.Errorf("failed to encode answers of %s: %w", r.ID, err)
		}
		if r.Answers == nil {
			answers = []byte("{}")
		}

		cells := []string{
			r.ID,
			r.Timestamp.UTC().Format(CSVDateLayout),
			string(r.Gender),
			r.Contact.Age,
			strconv.Itoa(r.Score),
			string(r.Recommendation),
			r.Treatment,
			r.Contact.Name,
			r.Contact.Email,
			r.Contact.Phone,
			string(answers),
		}

		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		for i, c := range cells {
			if i > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(quoteCell(c)); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

func quoteCell(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
