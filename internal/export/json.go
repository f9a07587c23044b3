package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/okulov/tempo/internal/store"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Start       string `json:"start_time"`
	Finish      string `json:"finish_time"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	Note        string `json:"note,omitempty"`
}

func ToJSON(sessions []store.Session, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	for _, s := range sessions {
		out.Sessions = append(out.Sessions, jsonSession{
			ID:          s.TimerID,
			Date:        s.Date,
			Category:    s.Category,
			Start:       s.Start,
			Finish:      s.Finish,
			DurationSec: s.Duration,
			Duration:    formatDuration(s.Duration),
			Note:        s.Note,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
