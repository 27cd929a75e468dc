package store

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pelviu-funnel/internal/models"
)

func TestWriteCSV(t *testing.T) {
	withContact := sampleRecord("b")
	withContact.Contact = models.Contact{Name: `Ana "La Rubia"`, Age: "41", Email: "ana@example.com", Phone: "+34 600, 111"}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []models.LeadRecord{sampleRecord("a"), withContact}))

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "ID,Date,Gender,Age,Score,Recommendation,Treatment,Name,Email,Phone,Answers(JSON)", lines[0])
	assert.Equal(t,
		`"a","2026-05-04 09:30:00","mujer","","36","Level 1","Nivel 1 (Leve)","","","","{""1"":5,""2"":10,""3"":10,""4"":10,""5"":10}"`,
		lines[1])
	assert.Equal(t,
		`"b","2026-05-04 09:30:00","mujer","41","36","Level 1","Nivel 1 (Leve)","Ana ""La Rubia""","ana@example.com","+34 600, 111","{""1"":5,""2"":10,""3"":10,""4"":10,""5"":10}"`,
		lines[2])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, strings.Join(CSVHeaders, ","), buf.String())
}

func TestWriteCSV_NilAnswers(t *testing.T) {
	r := sampleRecord("x")
	r.Answers = nil

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []models.LeadRecord{r}))
	assert.True(t, strings.HasSuffix(buf.String(), `,"{}"`))
}

func TestExportFilename(t *testing.T) {
	ts := time.Date(2026, 10, 16, 23, 30, 0, 0, time.FixedZone("X", -2*3600))
	assert.Equal(t, "pelviu_leads_2026-10-17.csv", ExportFilename(ts))
}
