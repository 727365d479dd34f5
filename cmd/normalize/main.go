// Command normalize runs the forecast normalizer and derived-forecast
// generator over stored provider answers, without Kafka or Gemini. It is used
// to inspect model output offline and to regenerate expected reports for the
// mock fixtures.
//
// The input is either one raw answer (prose, JSON or an envelope) or a JSON
// array whose elements are envelopes or answer strings.
//
// Usage:
//
//	go run ./cmd/normalize \
//	  -in data/mock/forecasts.json \
//	  -out /tmp/reports.json \
//	  -date 2026-10-18 -seed 1
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/farm-weather-insights/internal/domain"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "-", "input file, - for stdin")
	out := flag.String("out", "-", "output file, - for stdout")
	date := flag.String("date", "", "report date (YYYY-MM-DD) for answers that carry none; defaults to today")
	location := flag.String("location", "", "location for answers that carry none")
	seed := flag.Uint64("seed", 1, "forecast jitter seed; 0 draws a random seed")
	flag.Parse()

	now := time.Now().UTC()
	if *date != "" {
		d, err := time.Parse(domain.DateLayout, *date)
		if err != nil {
			return fmt.Errorf("invalid -date: %w", err)
		}
		now = d.Add(6 * time.Hour)
	}

	// Fixed clock keeps ProcessedAt stable across a run.
	domain.SetClock(clockwork.NewFakeClockAt(now))
	defer domain.SetClock(nil)

	data, err := readInput(*in)
	if err != nil {
		return err
	}

	payloads, batch := splitPayloads(data)
	headers := map[string]string{"location": *location, "date": *date}

	reports := make([]domain.WeatherReport, 0, len(payloads))
	for i, p := range payloads {
		src, err := domain.ParseRawEvent(domain.RawEvent{Value: p, Headers: headers})
		if err != nil {
			return fmt.Errorf("answer %d: %w", i, err)
		}
		reports = append(reports, domain.BuildReport(src, newGenerator(*seed)))
	}

	var result any = reports
	if !batch {
		result = reports[0]
	}
	if err := writeJSON(*out, result); err != nil {
		return err
	}
	log.Printf("normalized %d answer(s)", len(reports))
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// splitPayloads returns the array elements when data is a JSON array, else
// data itself. String elements are unwrapped to their text.
func splitPayloads(data []byte) ([][]byte, bool) {
	trimmed := bytes.TrimSpace(data)
	var elems []json.RawMessage
	if len(trimmed) == 0 || trimmed[0] != '[' || json.Unmarshal(trimmed, &elems) != nil || len(elems) == 0 {
		return [][]byte{data}, false
	}

	payloads := make([][]byte, 0, len(elems))
	for _, e := range elems {
		var s string
		if json.Unmarshal(e, &s) == nil {
			payloads = append(payloads, []byte(s))
			continue
		}
		payloads = append(payloads, e)
	}
	return payloads, true
}

func newGenerator(seed uint64) *domain.Generator {
	if seed == 0 {
		return domain.NewRandomGenerator()
	}
	return domain.NewGenerator(seed)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // output file, not a secret
}
