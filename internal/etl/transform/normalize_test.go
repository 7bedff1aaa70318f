package transform

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGender(t *testing.T) {
	for _, in := range []string{"m", "M", "male", "Male", " MALE "} {
		assert.Equal(t, Male, Gender(in), in)
	}
	for _, in := range []string{"f", "F", "female", "Female"} {
		assert.Equal(t, Female, Gender(in), in)
	}
	for _, in := range []string{"", "x", "unknown", "mal"} {
		assert.Equal(t, Other, Gender(in), in)
	}
}

func TestVehicleType(t *testing.T) {
	tests := map[string]string{
		"motorbike": "Motorcycle",
		"BIKE":      "Bicycle",
		"  trike  ": "Tricycle",
		"car":       "Car",
		"SCOOTER":   "Scooter",
		"e-bike":    "E-bike",
		"":          Unknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, VehicleType(in), in)
	}
}

func TestCourierName(t *testing.T) {
	tests := map[string]string{
		"FEDEZ":        "FEDEX",
		"fedez":        "FEDEX",
		"FedEz Ground": "FEDEX Ground",
		"FEDEX":        "FEDEX",
		"DHL":          "DHL",
		"  ":           Unknown,
	}
	for in, want := range tests {
		once := CourierName(in)
		assert.Equal(t, want, once, in)
		assert.Equal(t, once, CourierName(once), "correction must be idempotent for %q", in)
	}
}

func TestCategory(t *testing.T) {
	tests := map[string]string{
		"GADGETS":     Electronics,
		"electronics": Electronics,
		"Toy":         Toys,
		"make up":     Makeup,
		"BAG":         Bags,
		"clothes":     Clothing,
		"":            Uncategorized,
		"Furniture":   Uncategorized,
	}
	for in, want := range tests {
		assert.Equal(t, want, Category(in), in)
	}
}

func TestInferCategory(t *testing.T) {
	tests := map[string]string{
		"Bagpack":          Bags,
		"Leather Handbag":  Bags,
		"Laptop Bag":       Bags,
		"Makeup Kit":       Makeup,
		"Toy Car":          Toys,
		"Denim Jacket":     Clothing,
		"Gaming Laptop":    Electronics,
		"Ceramic Mug":      Uncategorized,
		"wireless-charger": Electronics,
	}
	for in, want := range tests {
		assert.Equal(t, want, InferCategory(in), in)
	}
}

func TestResolveCategory(t *testing.T) {
	// Inference overrides a well-formed source category
	assert.Equal(t, Toys, ResolveCategory("Electronics", "Toy Robot", true))
	assert.Equal(t, Electronics, ResolveCategory("Electronics", "Toy Robot", false))
	// No inference keeps the mapped category
	assert.Equal(t, Makeup, ResolveCategory("make up", "Palette", true))

	for _, c := range []string{"", "junk", "GADGETS"} {
		got := ResolveCategory(c, "anything", true)
		assert.Contains(t, Categories, got)
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "New York", TitleCase("  new YORK "))
	assert.Equal(t, "Philippines", TitleCase("PHILIPPINES"))
	assert.Equal(t, "", TitleCase("   "))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2021, 5, 10, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2021-05-10", "05/10/2021", "05-10-2021", "2021-05-10 13:45:00", " 2021-05-10T08:00:00Z "} {
		got, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), in)
	}
	for _, in := range []string{"", "not a date", "2021-13-40", "10.05.2021"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, in)
	}

	// Single-digit month and day
	for in, key := range map[string]int{
		"1/2/2021":          20210102,
		"5-9-2021":          20210509,
		"2021-1-2":          20210102,
		"5/10/2021 13:45":   20210510,
		"2021-5-9T08:00:00": 20210509,
	} {
		assert.Equal(t, key, ParseDateKey(in), in)
	}
}

func TestDateKey(t *testing.T) {
	d := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 20210102, DateKey(d))
	assert.Equal(t, 20210102, ParseDateKey("01/02/2021"))
	assert.Equal(t, 0, ParseDateKey("garbage"))

	back, ok := DateFromKey(20210102)
	require.True(t, ok)
	assert.True(t, d.Equal(back))

	_, ok = DateFromKey(20210230)
	assert.False(t, ok)
	_, ok = DateFromKey(0)
	assert.False(t, ok)
}

func TestDateRow(t *testing.T) {
	sat := DateRow(time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 20210102, sat.DateKey)
	assert.Equal(t, "2021-01-02", sat.FullDate)
	assert.Equal(t, "Saturday", sat.DayName)
	assert.Equal(t, "January", sat.MonthName)
	assert.Equal(t, 1, sat.Quarter)
	assert.Equal(t, "Y", sat.IsWeekend)

	mon := DateRow(time.Date(2021, 5, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Monday", mon.DayName)
	assert.Equal(t, 2, mon.Quarter)
	assert.Equal(t, "N", mon.IsWeekend)
}

func TestDateRangeAndDimension(t *testing.T) {
	start := time.Date(2020, 12, 30, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)

	dates := DateRange(start, end)
	require.Len(t, dates, 92)

	// Duplicates collapse and order is by key
	rows := DateDimension(append(dates, dates[5], dates[0]))
	require.Len(t, rows, 92)
	for i, r := range rows {
		assert.Equal(t, r.Year*10000+r.Month*100+r.Day, r.DateKey)
		assert.Equal(t, (r.Month+2)/3, r.Quarter)
		weekend := r.DayName == "Saturday" || r.DayName == "Sunday"
		assert.Equal(t, weekend, r.IsWeekend == "Y", r.FullDate)
		if i > 0 {
			assert.Less(t, rows[i-1].DateKey, r.DateKey)
		}
	}

	assert.Nil(t, DateRange(end, start))
	assert.Nil(t, DateDimension(nil))
	assert.Empty(t, DateDimension([]time.Time{{}}))
}

func TestContinentResolverBuiltin(t *testing.T) {
	r := NewContinentResolver()
	assert.Equal(t, SourceBuiltin, r.Source())
	assert.Equal(t, "Asia", r.Resolve("Philippines"))
	assert.Equal(t, "Europe", r.Resolve("GERMANY"))
	assert.Equal(t, "Europe", r.Resolve("Bosnia And Herzegovina"))
	assert.Equal(t, "North America", r.Resolve("United States"))
	assert.Equal(t, Other, r.Resolve("Unknown"))
	assert.Equal(t, Other, r.Resolve("Atlantis"))
	assert.Equal(t, Other, r.Resolve(""))
}

func TestReadContinentCSV(t *testing.T) {
	csv := "Country_Name , REGION,extra\nphilippines,south east asia,1\nPhilippines,Asia,2\natlantis,ocean,3\n,Europe,4\n"
	m, err := ReadContinentCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"philippines": "South East Asia", "atlantis": "Ocean"}, m)

	_, err = ReadContinentCSV(strings.NewReader("id,name\n1,x\n"))
	assert.ErrorIs(t, err, ErrMissingColumns)

	_, err = ReadContinentCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestLoadContinentResolver(t *testing.T) {
	dir := t.TempDir()

	path := dir + "/countries.csv"
	require.NoError(t, writeFile(path, "country,continent\nAtlantis,Ocean\nJapan,Far East\n"))

	r := LoadContinentResolver(path)
	assert.Equal(t, SourceCSV, r.Source())
	assert.Equal(t, "Ocean", r.Resolve("atlantis"))
	assert.Equal(t, "Far East", r.Resolve("Japan"))
	// Dictionary still answers what the file does not cover
	assert.Equal(t, "Europe", r.Resolve("France"))

	bad := dir + "/bad.csv"
	require.NoError(t, writeFile(bad, "a,b\n1,2\n"))
	assert.Equal(t, SourceBuiltin, LoadContinentResolver(bad).Source())
	assert.Equal(t, SourceBuiltin, LoadContinentResolver(dir+"/missing.csv").Source())
	assert.Equal(t, SourceBuiltin, LoadContinentResolver("").Source())
}
