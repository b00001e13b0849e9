// Package fallback serves read queries from a static line-delimited JSON
// snapshot when the fact store is unreachable. The snapshot is read-only;
// nothing is ever written back.
package fallback

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"gamestock/internal/weekly"
)

// Snapshot is one line of the degraded-mode file.
type Snapshot struct {
	Symbol       string   `json:"symbol"`
	MarketCap    *int64   `json:"marketCap"`
	CurrentPrice *int64   `json:"currentPrice"`
	ChangeRate   *float64 `json:"changeRate"`
}

// Reader reads the snapshot file on demand. The file is re-read per query so
// an operator can swap it without restarting the process; degraded mode is
// not a hot path.
type Reader struct {
	path string
	log  zerolog.Logger
}

// NewReader creates a snapshot reader. An empty path disables degraded mode;
// Available reports false and all queries fail.
func NewReader(path string, log zerolog.Logger) *Reader {
	return &Reader{
		path: path,
		log:  log.With().Str("component", "fallback_reader").Logger(),
	}
}

// Available reports whether a snapshot file is configured and present.
func (r *Reader) Available() bool {
	if r.path == "" {
		return false
	}
	info, err := os.Stat(r.path)
	return err == nil && !info.IsDir()
}

// All returns every snapshot line. Malformed lines are skipped with a warning
// rather than failing the whole read: a partially usable snapshot still beats
// no data during an outage.
func (r *Reader) All() ([]Snapshot, error) {
	if r.path == "" {
		return nil, fmt.Errorf("fallback snapshot not configured")
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fallback snapshot: %w", err)
	}
	defer f.Close()

	var snapshots []Snapshot
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var s Snapshot
		if err := json.Unmarshal(line, &s); err != nil {
			r.log.Warn().Err(err).Int("line", lineNo).Msg("Skipping malformed snapshot line")
			continue
		}
		if s.Symbol == "" {
			continue
		}
		snapshots = append(snapshots, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fallback snapshot: %w", err)
	}

	return snapshots, nil
}

// BySymbol returns the snapshot line for one symbol.
// Returns weekly.ErrNotFound when the symbol is absent.
func (r *Reader) BySymbol(symbol string) (*Snapshot, error) {
	snapshots, err := r.All()
	if err != nil {
		return nil, err
	}
	for i := range snapshots {
		if snapshots[i].Symbol == symbol {
			return &snapshots[i], nil
		}
	}
	return nil, fmt.Errorf("snapshot for %q: %w", symbol, weekly.ErrNotFound)
}
