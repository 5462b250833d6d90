package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the export header row for submissions.
var columns = []string{
	"Submission ID",
	"Attachment ID",
	"Document Type",
	"Status",
	"Phone",
	"MPRN",
	"GPRN",
	"Meter Config Code",
	"Demand Group Code",
	"Reading Value",
	"Reading Unit",
	"Source File",
	"Error",
	"Created At",
	"Updated At",
}

// Writer wraps csv.Writer for exporting submissions as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteSubmissions converts a batch of submissions to CSV rows and writes them.
func (w *Writer) WriteSubmissions(subs []domain.Submission) error {
	for i := range subs {
		if err := w.csv.Write(submissionToRow(&subs[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func submissionToRow(sub *domain.Submission) []string {
	row := make([]string, len(columns))
	row[0] = sub.ID.String()
	row[1] = sub.AttachmentID
	row[2] = string(sub.DocumentType)
	row[3] = string(sub.Status)
	row[4] = sub.Phone
	row[5] = sub.MPRN
	row[6] = sub.GPRN
	row[7] = sub.MeterConfigCode
	row[8] = sub.DemandGroupCode
	row[9] = sub.ReadingValue
	row[10] = sub.ReadingUnit
	row[11] = sub.SourceFileURL
	row[12] = sub.ErrorMessage
	row[13] = sub.CreatedAt.Format(time.RFC3339)
	row[14] = sub.UpdatedAt.Format(time.RFC3339)
	return row
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a business name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition
// header. Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string) string {
	sanitized := SanitizeFilename(name)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}

func cellRef(col, row int) string {
	name := ""
	for col >= 0 {
		name = string(rune('A'+col%26)) + name
		col = col/26 - 1
	}
	return name + strconv.Itoa(row)
}
