package clean

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pranavkoushik/vaccination-project/pkg/source"
)

// Cleaned datasets persist as <kind>_cleaned.csv. These files are the only
// coupling between the cleaner and the schema builder; the builder reads them
// back from disk rather than taking rows in memory.

// FileName returns the cleaned CSV name for a kind.
func FileName(kind source.Kind) string {
	return string(kind) + "_cleaned.csv"
}

// WriteAll persists every non-empty dataset into dir, creating it if needed.
func WriteAll(log *slog.Logger, dir string, data *Data) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cleaned data dir: %w", err)
	}

	writers := []struct {
		kind  source.Kind
		write func(path string) error
	}{
		{source.KindCoverage, func(p string) error {
			return writeCSV(p, coverageHeader, len(data.Coverage), func(i int) []string { return data.Coverage[i].record() })
		}},
		{source.KindIncidence, func(p string) error {
			return writeCSV(p, incidenceHeader, len(data.Incidence), func(i int) []string { return data.Incidence[i].record() })
		}},
		{source.KindReportedCases, func(p string) error {
			return writeCSV(p, casesHeader, len(data.Cases), func(i int) []string { return data.Cases[i].record() })
		}},
		{source.KindVaccineIntroduction, func(p string) error {
			return writeCSV(p, introductionHeader, len(data.Introduction), func(i int) []string { return data.Introduction[i].record() })
		}},
		{source.KindVaccineSchedule, func(p string) error {
			return writeCSV(p, scheduleHeader, len(data.Schedule), func(i int) []string { return data.Schedule[i].record() })
		}},
	}

	for _, w := range writers {
		if !data.Has(w.kind) {
			continue
		}
		path := filepath.Join(dir, FileName(w.kind))
		if err := w.write(path); err != nil {
			return fmt.Errorf("failed to write cleaned %s data: %w", w.kind, err)
		}
		log.Info("saved cleaned dataset", "kind", w.kind, "path", path)
	}
	return nil
}

// ReadAll loads whichever cleaned CSVs exist in dir. A missing file leaves
// that kind empty; a malformed file is an error.
func ReadAll(log *slog.Logger, dir string) (*Data, error) {
	data := &Data{}

	var err error
	if data.Coverage, err = ReadCoverage(filepath.Join(dir, FileName(source.KindCoverage))); err != nil {
		return nil, err
	}
	if data.Incidence, err = ReadIncidence(filepath.Join(dir, FileName(source.KindIncidence))); err != nil {
		return nil, err
	}
	if data.Cases, err = ReadReportedCases(filepath.Join(dir, FileName(source.KindReportedCases))); err != nil {
		return nil, err
	}
	if data.Introduction, err = ReadIntroduction(filepath.Join(dir, FileName(source.KindVaccineIntroduction))); err != nil {
		return nil, err
	}
	if data.Schedule, err = ReadSchedule(filepath.Join(dir, FileName(source.KindVaccineSchedule))); err != nil {
		return nil, err
	}

	for _, kind := range source.Kinds() {
		if !data.Has(kind) {
			log.Warn("no cleaned data found", "kind", kind, "dir", dir)
		}
	}
	return data, nil
}

func ReadCoverage(path string) ([]CoverageRow, error) {
	records, err := readCSV(path, coverageHeader)
	if err != nil || records == nil {
		return nil, err
	}
	rows := make([]CoverageRow, len(records))
	for i, rec := range records {
		year, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("failed to parse year in %s row %d: %w", path, i+1, err)
		}
		rows[i] = CoverageRow{
			Code: rec[0], Name: rec[1], Year: year, Antigen: rec[3],
			AntigenDescription: rec[4], CoverageCategory: rec[5],
			CoverageCategoryDescription: rec[6],
			TargetNumber:                mustMeasure(rec[7]),
			Doses:                       mustMeasure(rec[8]),
			Coverage:                    mustMeasure(rec[9]),
		}
	}
	return rows, nil
}

func ReadIncidence(path string) ([]IncidenceRow, error) {
	records, err := readCSV(path, incidenceHeader)
	if err != nil || records == nil {
		return nil, err
	}
	rows := make([]IncidenceRow, len(records))
	for i, rec := range records {
		year, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("failed to parse year in %s row %d: %w", path, i+1, err)
		}
		rows[i] = IncidenceRow{
			Code: rec[0], Name: rec[1], Year: year, Disease: rec[3],
			DiseaseDescription: rec[4], Denominator: rec[5],
			IncidenceRate:      mustMeasure(rec[6]),
		}
	}
	return rows, nil
}

func ReadReportedCases(path string) ([]CasesRow, error) {
	records, err := readCSV(path, casesHeader)
	if err != nil || records == nil {
		return nil, err
	}
	rows := make([]CasesRow, len(records))
	for i, rec := range records {
		year, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("failed to parse year in %s row %d: %w", path, i+1, err)
		}
		rows[i] = CasesRow{
			Code: rec[0], Name: rec[1], Year: year, Disease: rec[3],
			DiseaseDescription: rec[4], Cases: mustMeasure(rec[5]),
		}
	}
	return rows, nil
}

func ReadIntroduction(path string) ([]IntroductionRow, error) {
	records, err := readCSV(path, introductionHeader)
	if err != nil || records == nil {
		return nil, err
	}
	rows := make([]IntroductionRow, len(records))
	for i, rec := range records {
		year, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, fmt.Errorf("failed to parse year in %s row %d: %w", path, i+1, err)
		}
		rows[i] = IntroductionRow{
			ISO3Code: rec[0], CountryName: rec[1], WHORegion: rec[2],
			Year: year, Description: rec[4], Intro: rec[5],
		}
	}
	return rows, nil
}

func ReadSchedule(path string) ([]ScheduleRow, error) {
	records, err := readCSV(path, scheduleHeader)
	if err != nil || records == nil {
		return nil, err
	}
	rows := make([]ScheduleRow, len(records))
	for i, rec := range records {
		year, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("failed to parse year in %s row %d: %w", path, i+1, err)
		}
		rows[i] = ScheduleRow{
			ISO3Code: rec[0], CountryName: rec[1], Year: year,
			VaccineCode: rec[3], VaccineDescription: rec[4],
			ScheduleRounds: rec[5], TargetPop: rec[6], TargetPopDesc: rec[7],
			GeoArea: rec[8], AgeAdministered: rec[9], SourceComment: rec[10],
		}
	}
	return rows, nil
}

func writeCSV(path string, header []string, count int, recordFn func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < count; i++ {
		if err := w.Write(recordFn(i)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return f.Close()
}

// readCSV returns nil records (no error) when the file does not exist.
func readCSV(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	got, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	for i := range header {
		if got[i] != header[i] {
			return nil, fmt.Errorf("unexpected column %q in %s, want %q", got[i], path, header[i])
		}
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

func mustMeasure(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
