package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/okulov/tempo/internal/store"
)

func ToCSV(sessions []store.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Date", "Category", "Start", "Finish", "Duration (s)", "Duration", "Note"}); err != nil {
		return err
	}

	for _, s := range sessions {
		row := []string{
			fmt.Sprintf("%d", s.TimerID),
			s.Date,
			s.Category,
			s.Start,
			s.Finish,
			fmt.Sprintf("%d", s.Duration),
			formatDuration(s.Duration),
			s.Note,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
