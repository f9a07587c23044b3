package main

import (
	"fmt"
	"os"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/okulov/tempo/internal/config"
	"github.com/okulov/tempo/internal/engine"
	"github.com/okulov/tempo/internal/export"
	"github.com/okulov/tempo/internal/stats"
	"github.com/okulov/tempo/internal/store"
	"github.com/okulov/tempo/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tempo",
		Short:         "Track time spent in activity categories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "config file")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newExportCmd(&configPath))
	root.AddCommand(newStatsCmd(&configPath))
	return root
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "tempo.yaml"
	}
	return dir + "/tempo/tempo.yaml"
}

// loadEngine wires config, store, aggregator, and engine. The caller closes
// the returned store.
func loadEngine(configPath string) (*engine.Engine, *store.Store, config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, config.Config{}, err
	}

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, nil, config.Config{}, err
	}
	s, err := store.New(dbPath)
	if err != nil {
		return nil, nil, config.Config{}, fmt.Errorf("open database: %w", err)
	}

	now := cfg.Now()
	agg := stats.New(s, now)
	eng := engine.New(s, agg, now, engine.Policy{
		MinDuration: cfg.MinDurationSeconds,
		MaxDuration: cfg.MaxDurationSeconds,
	})
	return eng, s, cfg, nil
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the interactive tracker",
		RunE: func(_ *cobra.Command, _ []string) error {
			eng, s, cfg, err := loadEngine(*configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			app := tui.NewApp(eng, cfg.UserID)
			p := tea.NewProgram(app, tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

func newExportCmd(configPath *string) *cobra.Command {
	var format, out string
	var userID int64

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded sessions",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, s, cfg, err := loadEngine(*configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			if userID == 0 {
				userID = cfg.UserID
			}
			sessions, err := s.ListSessions(userID, store.SessionFilter{})
			if err != nil {
				return err
			}

			switch format {
			case "csv":
				err = export.ToCSV(sessions, out)
			case "json":
				err = export.ToJSON(sessions, out)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}
			fmt.Printf("exported %d sessions to %s\n", len(sessions), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	cmd.Flags().StringVar(&out, "out", "tempo-export.csv", "output file")
	cmd.Flags().Int64Var(&userID, "user", 0, "user id (default: configured user)")
	return cmd
}

func newStatsCmd(configPath *string) *cobra.Command {
	var period string
	var userID int64

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print category totals for a period",
		RunE: func(_ *cobra.Command, _ []string) error {
			eng, s, cfg, err := loadEngine(*configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			if userID == 0 {
				userID = cfg.UserID
			}

			var p stats.Period
			switch period {
			case "day":
				p = stats.PeriodDay
			case "week":
				p = stats.PeriodWeek
			case "month":
				p = stats.PeriodMonth
			case "year":
				p = stats.PeriodYear
			case "all":
				p = stats.PeriodAll
			default:
				return fmt.Errorf("unknown period %q", period)
			}

			eng.Handle(userID, engine.Stats{})
			eng.Handle(userID, engine.StatCategory{Name: "all"})
			reply := eng.Handle(userID, engine.StatPeriod{Period: p})
			if reply.Err != nil {
				return fmt.Errorf("%s", reply.Text)
			}

			cats := make([]string, 0, len(reply.Totals.Categories))
			for cat := range reply.Totals.Categories {
				cats = append(cats, cat)
			}
			sort.Strings(cats)
			for _, cat := range cats {
				fmt.Printf("%-12s %s\n", cat, engine.FormatSeconds(reply.Totals.Categories[cat]))
			}
			fmt.Printf("%-12s %s\n", "unrecorded", engine.FormatSeconds(reply.Totals.Unrecorded))
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "day", "day, week, month, year, or all")
	cmd.Flags().Int64Var(&userID, "user", 0, "user id (default: configured user)")
	return cmd
}
