package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/daylog-app/daylog/internal/config"
)

// resolveUser picks the explicit --user value or falls back to the
// configured default user.
func resolveUser(user string) (string, error) {
	if user != "" {
		return user, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if cfg.User.ID == "" {
		return "", fmt.Errorf("no user given; pass --user or set a default with: daylog config set user.id <id>")
	}
	return cfg.User.ID, nil
}

// resolveDay returns the --day value unchanged, or today in the user's
// profile timezone when no day was given.
func resolveDay(ctx context.Context, client *apiClient, userID, day string) (string, error) {
	if day != "" {
		return day, nil
	}

	resp, err := client.get(ctx, "/users/"+url.PathEscape(userID))
	if err != nil {
		return "", err
	}
	var u struct {
		Timezone string
	}
	if err := decodeJSON(resp, &u); err != nil {
		return "", err
	}

	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		loc = time.Local
	}
	return time.Now().In(loc).Format("2006-01-02"), nil
}

func printRawJSON(resp *http.Response) error {
	var payload any
	if err := decodeJSON(resp, &payload); err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// --- med ---

var medCmd = &cobra.Command{
	Use:   "med <name>",
	Short: "Log a medication or supplement",
	Long: `Log a medication or supplement intake for a day.

Examples:
  daylog med aspirin
  daylog med "vitamin D" --kind supp
  daylog med metformin --day 2026-08-20 --user alex`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		user, _ := cmd.Flags().GetString("user")
		day, _ := cmd.Flags().GetString("day")

		userID, err := resolveUser(user)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		day, err = resolveDay(cmd.Context(), client, userID, day)
		if err != nil {
			return err
		}

		req := map[string]any{
			"user_id": userID,
			"day":     day,
			"kind":    kind,
			"name":    strings.Join(args, " "),
		}

		resp, err := client.post(cmd.Context(), "/logs/meds", req)
		if err != nil {
			return err
		}

		var created struct {
			ID   string
			Name string
			Day  string
		}
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}

		printSuccess("Logged %s on %s (id %s)", created.Name, created.Day, created.ID)
		return nil
	},
}

func init() {
	medCmd.Flags().String("kind", "med", "entry kind: med or supp")
	medCmd.Flags().String("user", "", "user ID (default: configured user.id)")
	medCmd.Flags().String("day", "", "day as YYYY-MM-DD (default: today)")
}

// --- workout ---

var workoutCmd = &cobra.Command{
	Use:   "workout <name>",
	Short: "Log a workout",
	Long: `Log a workout for a day. Cardio and mind-body activities can carry
minutes and distance; strength entries are counted without them.

Examples:
  daylog workout "morning run" --minutes 32 --distance-km 5.4
  daylog workout yoga --minutes 20
  daylog workout deadlifts --category strength`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		user, _ := cmd.Flags().GetString("user")
		day, _ := cmd.Flags().GetString("day")

		userID, err := resolveUser(user)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		day, err = resolveDay(cmd.Context(), client, userID, day)
		if err != nil {
			return err
		}

		req := map[string]any{
			"user_id":  userID,
			"day":      day,
			"category": category,
			"name":     strings.Join(args, " "),
		}
		if cmd.Flags().Changed("minutes") {
			minutes, _ := cmd.Flags().GetFloat64("minutes")
			req["minutes"] = minutes
		}
		if cmd.Flags().Changed("distance-km") {
			km, _ := cmd.Flags().GetFloat64("distance-km")
			req["distance_km"] = km
		}

		resp, err := client.post(cmd.Context(), "/logs/exercise", req)
		if err != nil {
			return err
		}

		var created struct {
			ID   string
			Name string
			Day  string
		}
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}

		printSuccess("Logged %s on %s (id %s)", created.Name, created.Day, created.ID)
		return nil
	},
}

func init() {
	workoutCmd.Flags().String("category", "cardio_mind_body", "category: cardio_mind_body or strength")
	workoutCmd.Flags().Float64("minutes", 0, "duration in minutes")
	workoutCmd.Flags().Float64("distance-km", 0, "distance in kilometres")
	workoutCmd.Flags().String("user", "", "user ID (default: configured user.id)")
	workoutCmd.Flags().String("day", "", "day as YYYY-MM-DD (default: today)")
}

// --- food ---

var foodCmd = &cobra.Command{
	Use:   "food <name>",
	Short: "Log a food or drink entry",
	Long: `Log a consumed item with optional nutrition facts. Omitted nutrients
count as zero in the day's totals.

Examples:
  daylog food "oatmeal with banana" --calories 320 --protein 9 --carbs 58
  daylog food espresso
  daylog food "protein shake" --calories 180 --protein 30 --day 2026-08-20`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		day, _ := cmd.Flags().GetString("day")

		userID, err := resolveUser(user)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		day, err = resolveDay(cmd.Context(), client, userID, day)
		if err != nil {
			return err
		}

		req := map[string]any{
			"user_id": userID,
			"day":     day,
			"name":    strings.Join(args, " "),
		}
		nutrients := []struct {
			flag  string
			field string
		}{
			{"calories", "calories"},
			{"protein", "protein_g"},
			{"carbs", "carbs_g"},
			{"fat", "fat_g"},
			{"fibre", "fibre_g"},
			{"sugar", "sugar_g"},
			{"saturated-fat", "saturated_fat_g"},
			{"trans-fat", "trans_fat_g"},
			{"sodium", "sodium_mg"},
		}
		for _, n := range nutrients {
			if cmd.Flags().Changed(n.flag) {
				v, _ := cmd.Flags().GetFloat64(n.flag)
				req[n.field] = v
			}
		}

		resp, err := client.post(cmd.Context(), "/logs/consumed", req)
		if err != nil {
			return err
		}

		var created struct {
			ID   string
			Name string
			Day  string
		}
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}

		printSuccess("Logged %s on %s (id %s)", created.Name, created.Day, created.ID)
		return nil
	},
}

func init() {
	foodCmd.Flags().Float64("calories", 0, "energy in kcal")
	foodCmd.Flags().Float64("protein", 0, "protein in grams")
	foodCmd.Flags().Float64("carbs", 0, "carbohydrates in grams")
	foodCmd.Flags().Float64("fat", 0, "fat in grams")
	foodCmd.Flags().Float64("fibre", 0, "fibre in grams")
	foodCmd.Flags().Float64("sugar", 0, "sugar in grams")
	foodCmd.Flags().Float64("saturated-fat", 0, "saturated fat in grams")
	foodCmd.Flags().Float64("trans-fat", 0, "trans fat in grams")
	foodCmd.Flags().Float64("sodium", 0, "sodium in milligrams")
	foodCmd.Flags().String("user", "", "user ID (default: configured user.id)")
	foodCmd.Flags().String("day", "", "day as YYYY-MM-DD (default: today)")
}

// --- weigh ---

var weighCmd = &cobra.Command{
	Use:   "weigh <weight-kg>",
	Short: "Record body weight",
	Long: `Record a body weight measurement in kilograms. When a day holds
several measurements the newest one becomes the day's value.

Examples:
  daylog weigh 82.5
  daylog weigh 81.9 --day 2026-08-20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kg, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid weight %q: %w", args[0], err)
		}

		user, _ := cmd.Flags().GetString("user")
		day, _ := cmd.Flags().GetString("day")

		userID, err := resolveUser(user)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		day, err = resolveDay(cmd.Context(), client, userID, day)
		if err != nil {
			return err
		}

		req := map[string]any{
			"user_id":   userID,
			"day":       day,
			"weight_kg": kg,
		}

		resp, err := client.post(cmd.Context(), "/logs/weight", req)
		if err != nil {
			return err
		}

		var created struct {
			Day      string
			WeightKg float64
		}
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}

		printSuccess("Recorded %.1f kg on %s", created.WeightKg, created.Day)
		return nil
	},
}

func init() {
	weighCmd.Flags().String("user", "", "user ID (default: configured user.id)")
	weighCmd.Flags().String("day", "", "day as YYYY-MM-DD (default: today)")
}

// --- day ---

var dayCmd = &cobra.Command{
	Use:   "day <status>",
	Short: "Set the food-tracking status for a day",
	Long: `Mark a day's food tracking as in_progress or completed. Completing a
day asserts its food log is full and final.

Examples:
  daylog day completed
  daylog day in_progress --day 2026-08-20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		day, _ := cmd.Flags().GetString("day")

		userID, err := resolveUser(user)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		day, err = resolveDay(cmd.Context(), client, userID, day)
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/days/consumed/%s/%s/status", url.PathEscape(userID), day)
		resp, err := client.put(cmd.Context(), path, map[string]any{"status": args[0]})
		if err != nil {
			return err
		}

		var row struct {
			Day    string
			Status string
		}
		if err := decodeJSON(resp, &row); err != nil {
			return err
		}

		printSuccess("Marked %s as %s", row.Day, row.Status)
		return nil
	},
}

func init() {
	dayCmd.Flags().String("user", "", "user ID (default: configured user.id)")
	dayCmd.Flags().String("day", "", "day as YYYY-MM-DD (default: today)")
}

// --- rm ---

var rmCmd = &cobra.Command{
	Use:   "rm <domain> <id>",
	Short: "Delete a logged entry",
	Long: `Delete a logged entry by ID. The day's summary recomputes from the
remaining entries.

Examples:
  daylog rm meds 0b8e61a2-77e3-4f0c-9f3a-d41c8f6b2a10
  daylog rm weight 4f2a9c58-3d1b-49e7-8c6f-b2e04a7d913c`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		domain, id := args[0], args[1]
		switch domain {
		case "meds", "exercise", "consumed", "weight":
		default:
			return fmt.Errorf("unknown domain %q (one of: meds, exercise, consumed, weight)", domain)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/logs/"+domain+"/"+url.PathEscape(id))
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted %s entry %s", domain, id)
		return nil
	},
}

// --- show ---

type medsRow struct {
	Day       string
	MedCount  int
	SuppCount int
}

type exerciseRow struct {
	Day              string
	ActivityCount    int
	CardioCount      int
	CardioMinutes    float64
	CardioDistanceKm float64
	StrengthCount    int
}

type consumedRow struct {
	Day      string
	Status   string
	Calories float64
	ProteinG float64
	CarbsG   float64
	FatG     float64
}

type weightRow struct {
	Day      string
	WeightKg *float64
}

var showCmd = &cobra.Command{
	Use:   "show [domain]",
	Short: "Show daily summaries",
	Long: `Show per-day summaries, newest day first. With no domain all four
series print; otherwise one of meds, exercise, consumed, weight. The
default window is the last seven days.

Examples:
  daylog show
  daylog show weight --start 2026-08-01 --end 2026-08-24
  daylog show consumed --asc
  daylog show meds --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		asc, _ := cmd.Flags().GetBool("asc")
		asJSON, _ := cmd.Flags().GetBool("json")

		if len(args) == 1 {
			switch args[0] {
			case "meds", "exercise", "consumed", "weight":
			default:
				return fmt.Errorf("unknown domain %q (one of: meds, exercise, consumed, weight)", args[0])
			}
		}

		userID, err := resolveUser(user)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		q := url.Values{}
		q.Set("user", userID)
		if start != "" {
			q.Set("start", start)
		}
		if end != "" {
			q.Set("end", end)
		}
		if asc {
			q.Set("order", "asc")
		}

		if len(args) == 0 {
			return showOverview(cmd.Context(), client, q, asJSON)
		}
		return showDomain(cmd.Context(), client, args[0], q, asJSON)
	},
}

func init() {
	showCmd.Flags().String("user", "", "user ID (default: configured user.id)")
	showCmd.Flags().String("start", "", "first day of the window (default: end minus six days)")
	showCmd.Flags().String("end", "", "last day of the window (default: today)")
	showCmd.Flags().Bool("asc", false, "oldest day first")
	showCmd.Flags().Bool("json", false, "print raw JSON")
}

func showDomain(ctx context.Context, client *apiClient, domain string, q url.Values, asJSON bool) error {
	resp, err := client.get(ctx, "/summaries/"+domain+"?"+q.Encode())
	if err != nil {
		return err
	}

	if asJSON {
		return printRawJSON(resp)
	}

	switch domain {
	case "meds":
		var rows []medsRow
		if err := decodeJSON(resp, &rows); err != nil {
			return err
		}
		renderMeds(rows)
	case "exercise":
		var rows []exerciseRow
		if err := decodeJSON(resp, &rows); err != nil {
			return err
		}
		renderExercise(rows)
	case "consumed":
		var rows []consumedRow
		if err := decodeJSON(resp, &rows); err != nil {
			return err
		}
		renderConsumed(rows)
	case "weight":
		var rows []weightRow
		if err := decodeJSON(resp, &rows); err != nil {
			return err
		}
		renderWeights(rows)
	}
	return nil
}

func showOverview(ctx context.Context, client *apiClient, q url.Values, asJSON bool) error {
	resp, err := client.get(ctx, "/overview?"+q.Encode())
	if err != nil {
		return err
	}

	if asJSON {
		return printRawJSON(resp)
	}

	var ov struct {
		Meds     []medsRow
		Exercise []exerciseRow
		Consumed []consumedRow
		Weights  []weightRow
	}
	if err := decodeJSON(resp, &ov); err != nil {
		return err
	}

	fmt.Println(colorize(colorBold, "Meds"))
	renderMeds(ov.Meds)
	fmt.Println()
	fmt.Println(colorize(colorBold, "Exercise"))
	renderExercise(ov.Exercise)
	fmt.Println()
	fmt.Println(colorize(colorBold, "Food"))
	renderConsumed(ov.Consumed)
	fmt.Println()
	fmt.Println(colorize(colorBold, "Weight"))
	renderWeights(ov.Weights)
	return nil
}

func renderMeds(rows []medsRow) {
	for _, r := range rows {
		fmt.Printf("%s  %d med, %d supp\n", colorize(colorCyan, r.Day), r.MedCount, r.SuppCount)
	}
}

func renderExercise(rows []exerciseRow) {
	for _, r := range rows {
		detail := fmt.Sprintf("%d activities", r.ActivityCount)
		if r.CardioCount > 0 {
			detail += fmt.Sprintf(", cardio %.0f min", r.CardioMinutes)
			if r.CardioDistanceKm > 0 {
				detail += fmt.Sprintf(" %.1f km", r.CardioDistanceKm)
			}
		}
		if r.StrengthCount > 0 {
			detail += fmt.Sprintf(", %d strength", r.StrengthCount)
		}
		fmt.Printf("%s  %s\n", colorize(colorCyan, r.Day), detail)
	}
}

func renderConsumed(rows []consumedRow) {
	for _, r := range rows {
		fmt.Printf("%s  %-11s  %.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat\n",
			colorize(colorCyan, r.Day), r.Status, r.Calories, r.ProteinG, r.CarbsG, r.FatG)
	}
}

func renderWeights(rows []weightRow) {
	for _, r := range rows {
		if r.WeightKg == nil {
			fmt.Printf("%s  -\n", colorize(colorCyan, r.Day))
			continue
		}
		fmt.Printf("%s  %.1f kg\n", colorize(colorCyan, r.Day), *r.WeightKg)
	}
}

// --- user ---

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage tracked users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Create a user",
	Long: `Create a user. Summaries never reach further back than the signup
day, which defaults to now.

Examples:
  daylog user create alex --timezone America/New_York
  daylog user create alex --signup-at 2026-01-15T00:00:00Z --weight-unit lb`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timezone, _ := cmd.Flags().GetString("timezone")
		weightUnit, _ := cmd.Flags().GetString("weight-unit")
		signupAt, _ := cmd.Flags().GetString("signup-at")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{"id": args[0]}
		if timezone != "" {
			req["timezone"] = timezone
		}
		if weightUnit != "" {
			req["weight_unit"] = weightUnit
		}
		if signupAt != "" {
			req["signup_at"] = signupAt
		}

		resp, err := client.post(cmd.Context(), "/users", req)
		if err != nil {
			return err
		}

		var created struct {
			ID       string
			Timezone string
		}
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}

		printSuccess("Created user %s (%s)", created.ID, created.Timezone)
		return nil
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a user's profile as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user := ""
		if len(args) == 1 {
			user = args[0]
		}

		userID, err := resolveUser(user)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/users/"+url.PathEscape(userID))
		if err != nil {
			return err
		}
		return printRawJSON(resp)
	},
}

var userSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Update a user's timezone or weight unit",
	Long: `Update display settings. The timezone shifts which calendar day new
entries land on; already stored days never move.

Examples:
  daylog user settings --timezone Europe/Lisbon
  daylog user settings --weight-unit lb --user alex`,
	RunE: func(cmd *cobra.Command, args []string) error {
		timezone, _ := cmd.Flags().GetString("timezone")
		weightUnit, _ := cmd.Flags().GetString("weight-unit")
		user, _ := cmd.Flags().GetString("user")

		if timezone == "" && weightUnit == "" {
			return fmt.Errorf("nothing to update; pass --timezone or --weight-unit")
		}

		userID, err := resolveUser(user)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		// Settings replace as a pair; fill the omitted one from the
		// current profile.
		if timezone == "" || weightUnit == "" {
			resp, err := client.get(cmd.Context(), "/users/"+url.PathEscape(userID))
			if err != nil {
				return err
			}
			var current struct {
				Timezone   string
				WeightUnit string
			}
			if err := decodeJSON(resp, &current); err != nil {
				return err
			}
			if timezone == "" {
				timezone = current.Timezone
			}
			if weightUnit == "" {
				weightUnit = current.WeightUnit
			}
		}

		body := map[string]any{"timezone": timezone, "weight_unit": weightUnit}
		resp, err := client.put(cmd.Context(), "/users/"+url.PathEscape(userID)+"/settings", body)
		if err != nil {
			return err
		}

		var updated struct {
			Timezone   string
			WeightUnit string
		}
		if err := decodeJSON(resp, &updated); err != nil {
			return err
		}

		printSuccess("Settings for %s: timezone %s, weight unit %s", userID, updated.Timezone, updated.WeightUnit)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().String("timezone", "", "IANA timezone (default: UTC)")
	userCreateCmd.Flags().String("weight-unit", "", "display unit: kg or lb (default: kg)")
	userCreateCmd.Flags().String("signup-at", "", "signup time as RFC 3339 (default: now)")
	userSettingsCmd.Flags().String("timezone", "", "IANA timezone")
	userSettingsCmd.Flags().String("weight-unit", "", "display unit: kg or lb")
	userSettingsCmd.Flags().String("user", "", "user ID (default: configured user.id)")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userSettingsCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s  (env %s)\n", colorize(colorBold, k.Key), k.Value, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Reset a configuration value to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}

		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
