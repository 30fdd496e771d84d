package loader

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/models"
)

const header = "Row_ID,Order_ID,Order_Date,Ship_Date,Ship_Mode,Customer_ID,Customer_Name,Segment,Country,City,State,Postal_Code,Region,Product_ID,Category,Sub_Category,Product_Name,Sales,Quantity,Discount,Profit"

var sampleRows = []string{
	`1,CA-2016-152156,11/8/2016,11/11/2016,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,FUR-BO-10001798,Furniture,Bookcases,Bush Somerset Collection Bookcase,261.96,2,0,41.9136`,
	`2,CA-2014-138688,06/12/2014,06/16/2014,Second Class,DV-13045,Darrin Van Huff,Corporate,United States,Los Angeles,California,90036,West,OFF-LA-10000240,Office Supplies,Labels,"Self-Adhesive Address Labels for Typewriters by Universal",14.62,2,0,6.8714`,
	`3,US-2015-108966,10/11/2015,10/18/2015,Standard Class,SO-20335,Sean O'Donnell,Consumer,United States,Portland,Maine,04101,East,FUR-TA-10000577,Furniture,Tables,"Bretford CR4500 Series Slim Rectangular Table, 60""",957.5775,5,0.45,-383.031`,
	`4,CA-2014-100006,1/3/2014,1/8/2014,Standard Class,DK-13375,Dennis Kane,Consumer,United States,New York City,New York,10024,East,TEC-PH-10002075,Technology,Phones,AT&T EL51110 DECT,377.97,3,0,109.6113`,
}

func sampleCSV(rows ...string) string {
	return header + "\n" + strings.Join(rows, "\n") + "\n"
}

func parse(t *testing.T, content string) error {
	t.Helper()
	_, err := New(Options{BatchSize: 2, Workers: 3}).Parse(context.Background(), strings.NewReader(content))
	return err
}

func TestParse_NormalizesAndSorts(t *testing.T) {
	l := New(Options{BatchSize: 1})
	ds, err := l.Parse(context.Background(), strings.NewReader(sampleCSV(sampleRows...)))
	require.NoError(t, err)
	require.Len(t, ds.Records, 4)

	for i := 1; i < len(ds.Records); i++ {
		assert.False(t, ds.Records[i].OrderDate.Before(ds.Records[i-1].OrderDate), "records must be sorted by order date")
	}

	first := ds.Records[0]
	assert.Equal(t, "CA-2014-100006", first.OrderID)
	assert.Equal(t, time.Date(2014, 1, 3, 0, 0, 0, 0, time.UTC), first.OrderDate)
	assert.Equal(t, "Friday", first.OrderDay)
	assert.Equal(t, "January", first.OrderMonth)
	assert.Equal(t, 2014, first.OrderYear)
	assert.Equal(t, "NY", first.StateCode)
	assert.Equal(t, 3, first.Quantity)

	assert.Equal(t, []int{2014, 2015, 2016}, ds.Years)
	assert.Zero(t, ds.UnmappedStates)
}

func TestParse_PostalCodeKeptAsText(t *testing.T) {
	ds, err := New(Options{}).Parse(context.Background(), strings.NewReader(sampleCSV(sampleRows[2])))
	require.NoError(t, err)
	assert.Equal(t, "04101", ds.Records[0].PostalCode)
	assert.InDelta(t, -383.031, ds.Records[0].Profit, 1e-9)
	assert.Equal(t, `Bretford CR4500 Series Slim Rectangular Table, 60"`, ds.Records[0].ProductName)
}

func TestParse_Latin1(t *testing.T) {
	row := strings.Replace(sampleRows[0], "Claire Gute", "Ren\xe9e Gute", 1)
	ds, err := New(Options{Encoding: EncodingLatin1}).Parse(context.Background(), strings.NewReader(sampleCSV(row)))
	require.NoError(t, err)
	assert.Equal(t, "Renée Gute", ds.Records[0].CustomerName)
}

func TestParse_HeaderVariants(t *testing.T) {
	spaced := strings.ReplaceAll(header, "_", " ")
	spaced = strings.Replace(spaced, "Sub Category", "Sub-Category", 1)
	ds, err := New(Options{}).Parse(context.Background(), strings.NewReader(spaced+"\n"+sampleRows[0]+"\n"))
	require.NoError(t, err)
	assert.Equal(t, "Bookcases", ds.Records[0].SubCategory)
}

func TestParse_Idempotent(t *testing.T) {
	content := sampleCSV(sampleRows...)
	l := New(Options{BatchSize: 1, Workers: 4})

	a, err := l.Parse(context.Background(), strings.NewReader(content))
	require.NoError(t, err)
	b, err := l.Parse(context.Background(), strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestParse_UnknownStateIsNotFatal(t *testing.T) {
	row := strings.Replace(sampleRows[0], "Kentucky", "Ontario", 1)
	ds, err := New(Options{}).Parse(context.Background(), strings.NewReader(sampleCSV(row, sampleRows[1])))
	require.NoError(t, err)
	assert.Equal(t, 1, ds.UnmappedStates)

	for _, r := range ds.Records {
		if r.State == "Ontario" {
			assert.Empty(t, r.StateCode)
		}
	}
}

func TestParse_SchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		csv    string
		line   int
		column string
	}{
		{name: "empty file", csv: ""},
		{name: "header only", csv: header + "\n"},
		{name: "missing column", csv: strings.Replace(header, ",Profit", "", 1) + "\n" + sampleRows[0]},
		{
			name:   "bad order date",
			csv:    sampleCSV(sampleRows[0], strings.Replace(sampleRows[1], "06/12/2014", "2014-06-12", 1)),
			line:   3,
			column: "Order_Date",
		},
		{
			name:   "bad quantity",
			csv:    sampleCSV(strings.Replace(sampleRows[0], ",2,0,", ",two,0,", 1)),
			line:   2,
			column: "Quantity",
		},
		{
			name:   "bad sales",
			csv:    sampleCSV(strings.Replace(sampleRows[3], "377.97", "n/a", 1)),
			line:   2,
			column: "Sales",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parse(t, tt.csv)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchema)

			if tt.line > 0 {
				var rowErr *RowError
				require.ErrorAs(t, err, &rowErr)
				assert.Equal(t, tt.line, rowErr.Line)
				assert.Equal(t, tt.column, rowErr.Column)
			}
		})
	}
}

func TestParse_ReportsEarliestBadLine(t *testing.T) {
	bad := strings.Replace(sampleRows[0], "11/8/2016", "yesterday", 1)
	content := sampleCSV(sampleRows[1], bad, sampleRows[2], bad, bad)

	for range 5 {
		err := parse(t, content)
		var rowErr *RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 3, rowErr.Line)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "superstore.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV(sampleRows...)), 0o644))

	ds, err := New(Options{}).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, ds.Records, 4)

	_, err = New(Options{}).Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestParse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	buf.WriteString(header + "\n")
	for range 50 {
		buf.WriteString(sampleRows[0] + "\n")
	}

	_, err := New(Options{BatchSize: 5}).Parse(ctx, &buf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromRecords(t *testing.T) {
	l := New(Options{})
	records := []models.OrderRecord{
		{ProductID: "P2", State: "Texas", OrderDate: time.Date(2015, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{ProductID: "P1", State: "Atlantis", OrderDate: time.Date(2014, time.January, 3, 0, 0, 0, 0, time.UTC)},
	}

	ds := l.FromRecords(records)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, "P1", ds.Records[0].ProductID)
	assert.Equal(t, "Friday", ds.Records[0].OrderDay)
	assert.Equal(t, "June", ds.Records[1].OrderMonth)
	assert.Equal(t, "TX", ds.Records[1].StateCode)
	assert.Equal(t, []int{2014, 2015}, ds.Years)
	assert.Equal(t, 1, ds.UnmappedStates)
	assert.Empty(t, records[0].OrderDay, "input must not be modified")

	assert.Equal(t, ds.Fingerprint, l.FromRecords(records).Fingerprint)
	records[0].Sales = 1
	assert.NotEqual(t, ds.Fingerprint, l.FromRecords(records).Fingerprint)
}
