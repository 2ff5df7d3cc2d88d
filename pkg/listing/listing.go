// Package listing supplies the universe of tickers to scan.
package listing

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// footerMarker starts the trailing timestamp line of nasdaqlisted.txt,
// which reads either "File Created" or "File Creation Time".
const footerMarker = "File Creat"

// Source returns the tickers to scan, in scan order.
type Source interface {
	Tickers(ctx context.Context) ([]string, error)
}

// Getter is the subset of fetch.Client used here.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// NasdaqSource reads the NASDAQ Trader symbol directory.
type NasdaqSource struct {
	URL    string
	Getter Getter
}

func NewNasdaqSource(url string, getter Getter) *NasdaqSource {
	return &NasdaqSource{URL: url, Getter: getter}
}

func (s *NasdaqSource) Tickers(ctx context.Context) ([]string, error) {
	body, err := s.Getter.Get(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nasdaq listing: %w", err)
	}
	return ParseNasdaqListed(bytes.NewReader(body))
}

// ParseNasdaqListed parses the pipe-delimited symbol directory. Test issues,
// the footer line and repeated header rows are dropped. ETFs are kept.
func ParseNasdaqListed(r io.Reader) ([]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, footerMarker) {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, errors.New("listing is empty")
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.Comma = '|'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read listing header: %w", err)
	}
	symbolCol, testCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "Symbol":
			symbolCol = i
		case "Test Issue":
			testCol = i
		}
	}
	if symbolCol < 0 {
		return nil, fmt.Errorf("listing header has no Symbol column: %v", header)
	}

	var tickers []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse listing: %w", err)
		}
		if symbolCol >= len(record) {
			continue
		}
		sym := strings.TrimSpace(record[symbolCol])
		if sym == "" || sym == "Symbol" {
			continue
		}
		if testCol >= 0 && testCol < len(record) && strings.TrimSpace(record[testCol]) == "Y" {
			continue
		}
		tickers = append(tickers, sym)
	}

	return tickers, nil
}

// FileSource reads symbols from the first column of a local CSV file. The
// first row is a header.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Tickers(_ context.Context) ([]string, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ticker file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read ticker file: %w", err)
	}

	var tickers []string
	for i, record := range records {
		if i == 0 || len(record) == 0 {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(record[0]))
		if sym != "" {
			tickers = append(tickers, sym)
		}
	}
	return tickers, nil
}

// Limit caps a source at n tickers. n <= 0 returns the source unchanged.
func Limit(src Source, n int) Source {
	if n <= 0 {
		return src
	}
	return limited{src: src, n: n}
}

type limited struct {
	src Source
	n   int
}

func (l limited) Tickers(ctx context.Context) ([]string, error) {
	tickers, err := l.src.Tickers(ctx)
	if err != nil {
		return nil, err
	}
	if len(tickers) > l.n {
		tickers = tickers[:l.n]
	}
	return tickers, nil
}
