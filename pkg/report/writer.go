package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tidwall/pretty"
)

// WriteJSON writes the report to path, creating the directory and replacing
// any previous report.
func WriteJSON(path string, r *Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = pretty.PrettyOptions(data, &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: false})

	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ReadJSON loads a report written by WriteJSON.
func ReadJSON(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &r, nil
}

var csvHeader = []string{
	"ticker",
	"jump_date",
	"one_day_jump",
	"five_day_move",
	"prev_close",
	"close",
	"news_hits",
	"news_classification",
	"top_headline",
}

// WriteCSV mirrors the ranked items as a flat CSV, one row per mover.
func WriteCSV(path string, r *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, item := range r.Items {
		top := ""
		if len(item.TopHeadlines) > 0 {
			top = item.TopHeadlines[0].Title
		}
		record := []string{
			item.Ticker,
			item.JumpDate,
			strconv.FormatFloat(item.OneDayJump, 'f', -1, 64),
			strconv.FormatFloat(item.FiveDayMove, 'f', -1, 64),
			strconv.FormatFloat(item.PrevClose, 'f', -1, 64),
			strconv.FormatFloat(item.Close, 'f', -1, 64),
			strconv.Itoa(item.NewsHits),
			string(item.NewsClassification),
			top,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record for %s: %w", item.Ticker, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return file.Close()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
