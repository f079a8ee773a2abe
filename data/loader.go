// Package data loads raw trip tables and cleans them before training.
package data

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"taxifare/models"
)

// Source is a bounded tabular trip source. A limit <= 0 means no limit.
type Source interface {
	Load(ctx context.Context, limit int) (models.Dataset, error)
}

// GetData loads up to rowLimit trips from src. Any read failure is reported
// as models.ErrDataUnavailable.
func GetData(ctx context.Context, src Source, rowLimit int) (models.Dataset, error) {
	ds, err := src.Load(ctx, rowLimit)
	if err != nil {
		if stderrors.Is(err, models.ErrDataUnavailable) {
			return models.Dataset{}, err
		}
		return models.Dataset{}, fmt.Errorf("%w: %w", models.ErrDataUnavailable, err)
	}
	return ds, nil
}

// CSVSource reads trips from a CSV file with a header row.
type CSVSource struct {
	Path string
}

var requiredColumns = []string{
	models.ColPickupDatetime,
	models.ColPickupLatitude,
	models.ColPickupLongitude,
	models.ColDropoffLatitude,
	models.ColDropoffLongitude,
	models.ColPassengerCount,
}

func (s CSVSource) Load(ctx context.Context, limit int) (models.Dataset, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return models.Dataset{}, errors.Wrapf(err, "open %s", s.Path)
	}
	defer f.Close()
	return ReadCSV(ctx, f, limit)
}

// ReadCSV parses trips from r. Columns are matched by header name; unknown
// columns are ignored. Empty or unparsable cells are marked missing.
func ReadCSV(ctx context.Context, r io.Reader, limit int) (models.Dataset, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err != nil {
		return models.Dataset{}, errors.Wrap(err, "read header")
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return models.Dataset{}, errors.Errorf("missing required column %q", col)
		}
	}
	_, hasFare := index[models.ColFareAmount]
	ds := models.Dataset{HasFare: hasFare}

	for line := 2; limit <= 0 || len(ds.Trips) < limit; line++ {
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return models.Dataset{}, err
			}
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Dataset{}, errors.Wrapf(err, "line %d", line)
		}
		ds.Trips = append(ds.Trips, parseRecord(record, index))
	}
	return ds, nil
}

func parseRecord(record []string, index map[string]int) models.Trip {
	var t models.Trip
	cell := func(col string) (string, bool) {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return "", false
		}
		v := strings.TrimSpace(record[i])
		return v, v != ""
	}
	float := func(col string, dst *float64, flag models.Field) {
		v, ok := cell(col)
		if !ok {
			t.Missing |= flag
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			t.Missing |= flag
			return
		}
		*dst = f
	}

	t.Key, _ = cell(models.ColKey)
	if v, ok := cell(models.ColPickupDatetime); ok {
		t.PickupDatetime = v
	} else {
		t.Missing |= models.FieldPickupDatetime
	}
	float(models.ColPickupLatitude, &t.PickupLatitude, models.FieldPickupLatitude)
	float(models.ColPickupLongitude, &t.PickupLongitude, models.FieldPickupLongitude)
	float(models.ColDropoffLatitude, &t.DropoffLatitude, models.FieldDropoffLatitude)
	float(models.ColDropoffLongitude, &t.DropoffLongitude, models.FieldDropoffLongitude)
	if _, ok := index[models.ColFareAmount]; ok {
		float(models.ColFareAmount, &t.FareAmount, models.FieldFareAmount)
	}

	var count float64
	float(models.ColPassengerCount, &count, models.FieldPassengerCount)
	if count != float64(int(count)) {
		t.Missing |= models.FieldPassengerCount
	}
	t.PassengerCount = int(count)
	return t
}

// WriteCSV writes ds in the layout ReadCSV understands.
func WriteCSV(w io.Writer, ds models.Dataset) error {
	cw := csv.NewWriter(w)
	header := []string{
		models.ColKey, models.ColPickupDatetime,
		models.ColPickupLongitude, models.ColPickupLatitude,
		models.ColDropoffLongitude, models.ColDropoffLatitude,
		models.ColPassengerCount,
	}
	if ds.HasFare {
		header = append(header, models.ColFareAmount)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, t := range ds.Trips {
		row := []string{
			t.Key, t.PickupDatetime,
			ff(t.PickupLongitude), ff(t.PickupLatitude),
			ff(t.DropoffLongitude), ff(t.DropoffLatitude),
			strconv.Itoa(t.PassengerCount),
		}
		if ds.HasFare {
			row = append(row, ff(t.FareAmount))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
