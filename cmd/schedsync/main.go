package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"schedsync/internal/app"
	"schedsync/internal/config"
	"schedsync/internal/daemon"
	"schedsync/internal/model"
	"schedsync/internal/sched"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	// A local .env may carry SCHEDSYNC_CONFIG_PATH / SCHEDSYNC_HOME
	// overrides; absence is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer
// a.Close(). operation identifies the CLI command being run.
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "schedsync",
	Short: "Cross-event schedule synchronization",
}

// config command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init OWNER_ID",
	Short: "Initialize configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(args[0], defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Owner ID: %s\n", cfg.OwnerID)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Owner ID:      %s\n", cfg.OwnerID)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Sync schedule: %s\n", cfg.Sync.Schedule)
		return nil
	},
}

// template command

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage weekly availability templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListTemplates")
		if err != nil {
			return err
		}
		defer a.Close()

		tmpls, err := a.ListTemplates()
		if err != nil {
			return err
		}

		if len(tmpls) == 0 {
			fmt.Println("No templates.")
			return nil
		}

		for _, t := range tmpls {
			confidence := ""
			if t.Source == model.SourceLearned {
				confidence = fmt.Sprintf("  samples:%d", t.SampleCount)
			}
			fmt.Printf("%s  %-9s  %s  %-11s  %s%s\n",
				t.ID,
				t.Weekday,
				formatWindow(t.StartMinute, t.EndMinute),
				availabilityWord(t.Available),
				t.Source,
				confidence,
			)
		}
		return nil
	},
}

var templateAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a manual template",
	RunE: func(cmd *cobra.Command, args []string) error {
		weekday, _ := cmd.Flags().GetInt("weekday")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		unavailable, _ := cmd.Flags().GetBool("unavailable")

		startMinute, err := parseClock(from)
		if err != nil {
			return fmt.Errorf("parsing --from: %w", err)
		}
		endMinute, err := parseClock(to)
		if err != nil {
			return fmt.Errorf("parsing --to: %w", err)
		}

		a, err := newApp("AddTemplate")
		if err != nil {
			return err
		}
		defer a.Close()

		tmpl, err := a.AddTemplate(weekday, startMinute, endMinute, !unavailable)
		if err != nil {
			a.SetStatus("error")
			return err
		}

		fmt.Printf("Template added: %s %s %s\n", tmpl.Weekday, formatWindow(tmpl.StartMinute, tmpl.EndMinute), availabilityWord(tmpl.Available))
		return nil
	},
}

var templateRemoveCmd = &cobra.Command{
	Use:   "remove TEMPLATE_ID",
	Short: "Remove a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RemoveTemplate")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RemoveTemplate(args[0]); err != nil {
			a.SetStatus("error")
			return err
		}
		fmt.Println("Template removed.")
		return nil
	},
}

// context command

var contextCmd = &cobra.Command{
	Use:   "context EVENT_ID",
	Short: "Show the answer-form context for an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("BuildContext")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, dates, err := a.Context(args[0])
		if err != nil {
			return err
		}

		if !ctx.IsAuthenticated {
			fmt.Println("No owner configured; blank form, no suggestions.")
			return nil
		}

		locked := make(map[string]bool)
		for _, id := range ctx.LockedDateIDs {
			locked[id] = true
		}
		overridden := make(map[string]bool)
		for _, id := range ctx.OverrideDateIDs {
			overridden[id] = true
		}

		for _, d := range dates {
			marker := "      "
			if suggestion, ok := ctx.AutoFill[d.ID]; ok {
				marker = fmt.Sprintf("%-6s", availabilityWord(suggestion))
			}
			flags := ""
			if locked[d.ID] {
				flags += "  [locked]"
			}
			if overridden[d.ID] {
				flags += "  [override]"
			}
			fmt.Printf("%s  %s - %s  %s%s\n",
				d.ID,
				d.Start.Format("2006-01-02 15:04"),
				d.End.Format("15:04"),
				marker,
				flags,
			)
		}
		return nil
	},
}

// answer command

var answerCmd = &cobra.Command{
	Use:   "answer EVENT_ID",
	Short: "Answer an event's candidate dates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selects, _ := cmd.Flags().GetStringSlice("select")
		overrides, _ := cmd.Flags().GetStringSlice("override")
		autoSync, _ := cmd.Flags().GetBool("auto-sync")

		a, err := newApp("Answer")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Answer(args[0], selects, overrides, autoSync); err != nil {
			a.SetStatus("error")
			if sched.IsRedirect(err) {
				return fmt.Errorf("cannot answer: %w", err)
			}
			return err
		}

		fmt.Printf("Answer recorded: %d date(s) available.\n", len(selects))
		return nil
	},
}

// sync command

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Preview and apply schedule synchronization",
}

var syncPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show pending availability changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, _ := cmd.Flags().GetString("event")
		exclude, _ := cmd.Flags().GetString("exclude")

		a, err := newApp("SyncPreview")
		if err != nil {
			return err
		}
		defer a.Close()

		opts := sched.PreviewOptions{Scope: sched.ScopeAll, ExcludeEventID: exclude}
		if eventID != "" {
			opts = sched.PreviewOptions{Scope: sched.ScopeCurrent, EventID: eventID}
		}

		previews, err := a.Preview(opts)
		if err != nil {
			return err
		}

		shown := 0
		for _, p := range previews {
			if p.Changes.Total == 0 {
				continue
			}
			shown++
			printPreview(p)
		}
		if shown == 0 {
			fmt.Println("Everything in sync.")
		}
		return nil
	},
}

var syncApplyCmd = &cobra.Command{
	Use:   "apply EVENT_ID",
	Short: "Apply pending changes to one event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selects, _ := cmd.Flags().GetStringSlice("select")
		overwriteProtected, _ := cmd.Flags().GetBool("overwrite-protected")
		allowFinalized, _ := cmd.Flags().GetBool("allow-finalized")
		yes, _ := cmd.Flags().GetBool("yes")

		a, err := newApp("SyncApply")
		if err != nil {
			return err
		}
		defer a.Close()

		previews, err := a.Preview(sched.PreviewOptions{Scope: sched.ScopeCurrent, EventID: args[0]})
		if err != nil {
			return err
		}
		p := previews[0]

		if p.Changes.Total == 0 {
			fmt.Println("Nothing to change.")
			return nil
		}

		printPreview(p)
		if !yes && !confirm("Apply these changes?") {
			fmt.Println("Cancelled.")
			return nil
		}

		// Approve every pending change, or only the named dates.
		approved := make(map[string]bool, len(selects))
		for _, id := range selects {
			approved[id] = true
		}
		selections := make(map[string]bool)
		for _, row := range p.Rows {
			if !row.WillChange {
				continue
			}
			if len(approved) > 0 && !approved[row.DateID] {
				continue
			}
			selections[row.DateID] = row.Desired
		}

		result, err := a.Apply(args[0], selections, overwriteProtected, allowFinalized)
		if err != nil {
			a.SetStatus("error")
			return err
		}
		if !result.Success {
			a.SetStatus("error")
			fmt.Printf("Not applied: %s\n", result.Message)
			return nil
		}

		// Reconcile locally instead of re-fetching.
		after := sched.Reconcile(p, selections, overwriteProtected)
		fmt.Printf("Applied %d change(s); %d still pending.\n", result.Applied, after.Changes.Total)
		return nil
	},
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Apply pending changes across all linked events",
	RunE: func(cmd *cobra.Command, args []string) error {
		allowFinalized, _ := cmd.Flags().GetBool("allow-finalized")

		a, err := newApp("SyncAll")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.SyncAll(allowFinalized)
		if err != nil {
			a.SetStatus("error")
			return err
		}

		fmt.Printf("Synced %d event(s), %d change(s) applied, %d skipped.\n", report.Synced, report.Applied, report.Skipped)
		for _, f := range report.Failures {
			fmt.Printf("  failed: %s (%s): %s\n", f.EventName, f.EventID, f.Message)
		}
		if len(report.Failures) > 0 {
			a.SetStatus("error")
		}
		return nil
	},
}

// link command

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage event links",
}

var linkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List linked events",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListLinks")
		if err != nil {
			return err
		}
		defer a.Close()

		links, err := a.ListLinks()
		if err != nil {
			return err
		}

		if len(links) == 0 {
			fmt.Println("No linked events.")
			return nil
		}

		for _, l := range links {
			event, err := a.GetEvent(l.EventID)
			if err != nil {
				return err
			}
			name := l.EventID
			finalized := ""
			if event != nil {
				name = event.Name
				if event.Finalized {
					finalized = "  [finalized]"
				}
			}
			auto := ""
			if l.AutoSync {
				auto = "  [auto-sync]"
			}
			answered := "unanswered"
			if l.Linked() {
				answered = "answered"
			}
			fmt.Printf("%s  %-10s%s%s\n", name, answered, auto, finalized)
		}
		return nil
	},
}

// history command

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
			)
		}
		return nil
	},
}

// daemon command

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the auto-sync daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		a, err := app.NewApp(cfg, "Daemon")
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			cancel()
		}()

		schedule := cfg.Sync.Schedule
		if schedule == "" {
			schedule = config.DefaultSyncSchedule
		}

		runner := daemon.New(a.Service(), a.Database(), a.Logger(), schedule, cfg.Sync.AllowFinalized)
		return runner.Run(ctx)
	},
}

// printPreview renders one event's diff.
func printPreview(p *sched.SyncPreviewEvent) {
	finalized := ""
	if p.Finalized {
		finalized = "  [finalized]"
	}
	fmt.Printf("%s%s  (%d change(s))\n", p.EventName, finalized, p.Changes.Total)
	for _, row := range p.Rows {
		if !row.WillChange && !row.Protected {
			continue
		}
		protected := ""
		if row.Protected {
			protected = "  [protected]"
		}
		change := availabilityWord(row.Current)
		if row.WillChange {
			change = fmt.Sprintf("%s -> %s", availabilityWord(row.Current), availabilityWord(row.Desired))
		}
		fmt.Printf("  %s - %s  %s%s\n",
			row.Start.Format("2006-01-02 15:04"),
			row.End.Format("15:04"),
			change,
			protected,
		)
	}
}

// confirm asks for a y/N answer on an interactive terminal. A
// non-interactive stdin counts as a refusal so scripted runs must pass
// --yes explicitly.
func confirm(prompt string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatWindow(startMinute, endMinute int) string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", startMinute/60, startMinute%60, endMinute/60, endMinute%60)
}

func availabilityWord(available bool) string {
	if available {
		return "available"
	}
	return "unavailable"
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// template subcommands
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateAddCmd)
	templateAddCmd.Flags().IntP("weekday", "w", 0, "Weekday, 0 (Sunday) through 6 (Saturday)")
	templateAddCmd.Flags().String("from", "", "Window start, HH:MM")
	templateAddCmd.Flags().String("to", "", "Window end, HH:MM")
	templateAddCmd.Flags().Bool("unavailable", false, "Mark the window unavailable instead of available")
	templateCmd.AddCommand(templateRemoveCmd)

	// answer flags
	answerCmd.Flags().StringSlice("select", nil, "Candidate date IDs the owner is available for")
	answerCmd.Flags().StringSlice("override", nil, "Locked date IDs the owner consciously answered anyway")
	answerCmd.Flags().Bool("auto-sync", false, "Keep this event in sync automatically")

	// sync subcommands
	syncCmd.AddCommand(syncPreviewCmd)
	syncPreviewCmd.Flags().String("event", "", "Preview a single event")
	syncPreviewCmd.Flags().String("exclude", "", "Skip this event and ignore its finalized dates")
	syncCmd.AddCommand(syncApplyCmd)
	syncApplyCmd.Flags().StringSlice("select", nil, "Apply only these pending date IDs")
	syncApplyCmd.Flags().Bool("overwrite-protected", false, "Force explicit selections onto protected cells")
	syncApplyCmd.Flags().Bool("allow-finalized", false, "Allow writing to a finalized event")
	syncApplyCmd.Flags().BoolP("yes", "y", false, "Apply without asking")
	syncCmd.AddCommand(syncRunCmd)
	syncRunCmd.Flags().Bool("allow-finalized", false, "Allow writing to finalized events")

	// link subcommands
	linkCmd.AddCommand(linkListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(daemonCmd)
}
