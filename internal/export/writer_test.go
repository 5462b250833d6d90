package export_test

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/export"
)

func sampleSubmissions() []domain.Submission {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return []domain.Submission{
		{
			ID:           uuid.New(),
			AttachmentID: "att-1",
			DocumentType: domain.DocTypeElectricity,
			Status:       domain.SubmissionStatusSubmitted,
			Phone:        "353871234567",
			MPRN:         "10001234567",
			CreatedAt:    created,
			UpdatedAt:    created,
		},
		{
			ID:           uuid.New(),
			AttachmentID: "att-2",
			DocumentType: domain.DocTypeMeter,
			Status:       domain.SubmissionStatusFailed,
			Phone:        "353871234567",
			ReadingValue: "12345",
			ReadingUnit:  "kWh",
			ErrorMessage: "gateway timeout",
			CreatedAt:    created,
			UpdatedAt:    created,
		},
	}
}

func TestWriterProducesParsableCSV(t *testing.T) {
	subs := sampleSubmissions()
	var buf bytes.Buffer

	w := export.NewWriter(&buf)
	assert.NoError(t, w.WriteHeader())
	assert.NoError(t, w.WriteSubmissions(subs))
	w.Flush()
	assert.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, rows, 3)

	header := rows[0]
	assert.Equal(t, "Submission ID", header[0])
	assert.Equal(t, "MPRN", header[5])
	assert.Equal(t, "Updated At", header[14])

	assert.Equal(t, subs[0].ID.String(), rows[1][0])
	assert.Equal(t, "electricity", rows[1][2])
	assert.Equal(t, "10001234567", rows[1][5])
	assert.Equal(t, "2026-03-14T09:30:00Z", rows[1][13])

	assert.Equal(t, "meter", rows[2][2])
	assert.Equal(t, "12345", rows[2][9])
	assert.Equal(t, "gateway timeout", rows[2][12])
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	subs := sampleSubmissions()
	var buf bytes.Buffer

	assert.NoError(t, export.WriteXLSX(&buf, subs))

	f, err := excelize.OpenReader(&buf)
	assert.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Submissions")
	assert.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "Submission ID", rows[0][0])
	assert.Equal(t, subs[0].ID.String(), rows[1][0])
	assert.Equal(t, "10001234567", rows[1][5])
	assert.Equal(t, "gateway timeout", rows[2][12])
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme Utilities Ltd.", "Acme_Utilities_Ltd"},
		{"already-clean_name", "already-clean_name"},
		{"  spaces   everywhere  ", "spaces_everywhere"},
		{"weird/\\:*?chars", "weird_chars"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, export.SanitizeFilename(tc.in), "input %q", tc.in)
	}

	long := export.SanitizeFilename(string(bytes.Repeat([]byte("a"), 150)))
	assert.Len(t, long, 100)
}

func TestBuildFilename(t *testing.T) {
	got := export.BuildFilename("Acme Utilities", "csv")
	want := fmt.Sprintf("Acme_Utilities_%s.csv", time.Now().Format("2006-01-02"))
	assert.Equal(t, want, got)
}
