package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/daylog-app/daylog/internal/profile"
	"github.com/daylog-app/daylog/internal/series"
	"github.com/daylog-app/daylog/internal/summary"
	"github.com/daylog-app/daylog/internal/tracker"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Tracker     *tracker.Service
	Series      *series.Fetcher
	Profile     *profile.Manager
	DefaultUser string // user assumed when a tool call names none
}

// NewMCPServer creates an MCP server with all daylog tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"daylog",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("daylog — local tracker for meds, exercise, food and weight with per-day summaries."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("log_med",
			mcp.WithDescription("Record a medication or supplement taken on a day."),
			mcp.WithString("name", mcp.Description("What was taken"), mcp.Required()),
			mcp.WithString("kind", mcp.Description("Either med or supp (default med)")),
			mcp.WithString("user", mcp.Description("User ID (defaults to the configured user)")),
			mcp.WithString("day", mcp.Description("Day as YYYY-MM-DD (defaults to the user's current day)")),
		),
		mcpLogMed(deps),
	)

	s.AddTool(
		mcp.NewTool("log_exercise",
			mcp.WithDescription("Record an exercise activity for a day."),
			mcp.WithString("name", mcp.Description("Activity name, e.g. run or deadlift"), mcp.Required()),
			mcp.WithString("category", mcp.Description("Either cardio_mind_body or strength (default cardio_mind_body)")),
			mcp.WithNumber("minutes", mcp.Description("Duration in minutes")),
			mcp.WithNumber("distance_km", mcp.Description("Distance covered in kilometres")),
			mcp.WithString("user", mcp.Description("User ID (defaults to the configured user)")),
			mcp.WithString("day", mcp.Description("Day as YYYY-MM-DD (defaults to the user's current day)")),
		),
		mcpLogExercise(deps),
	)

	s.AddTool(
		mcp.NewTool("log_food",
			mcp.WithDescription("Record something eaten or drunk, with optional nutrient amounts."),
			mcp.WithString("name", mcp.Description("What was consumed"), mcp.Required()),
			mcp.WithNumber("calories", mcp.Description("Energy in kcal")),
			mcp.WithNumber("protein_g", mcp.Description("Protein in grams")),
			mcp.WithNumber("carbs_g", mcp.Description("Carbohydrates in grams")),
			mcp.WithNumber("fat_g", mcp.Description("Fat in grams")),
			mcp.WithNumber("fibre_g", mcp.Description("Fibre in grams")),
			mcp.WithNumber("sugar_g", mcp.Description("Sugar in grams")),
			mcp.WithNumber("saturated_fat_g", mcp.Description("Saturated fat in grams")),
			mcp.WithNumber("trans_fat_g", mcp.Description("Trans fat in grams")),
			mcp.WithNumber("sodium_mg", mcp.Description("Sodium in milligrams")),
			mcp.WithString("user", mcp.Description("User ID (defaults to the configured user)")),
			mcp.WithString("day", mcp.Description("Day as YYYY-MM-DD (defaults to the user's current day)")),
		),
		mcpLogFood(deps),
	)

	s.AddTool(
		mcp.NewTool("log_weight",
			mcp.WithDescription("Record a body weight reading for a day."),
			mcp.WithNumber("weight_kg", mcp.Description("Weight in kilograms"), mcp.Required()),
			mcp.WithString("user", mcp.Description("User ID (defaults to the configured user)")),
			mcp.WithString("day", mcp.Description("Day as YYYY-MM-DD (defaults to the user's current day)")),
		),
		mcpLogWeight(deps),
	)

	s.AddTool(
		mcp.NewTool("set_day_status",
			mcp.WithDescription("Mark a day's food tracking as in_progress or completed."),
			mcp.WithString("status", mcp.Description("Either in_progress or completed"), mcp.Required()),
			mcp.WithString("user", mcp.Description("User ID (defaults to the configured user)")),
			mcp.WithString("day", mcp.Description("Day as YYYY-MM-DD (defaults to the user's current day)")),
		),
		mcpSetDayStatus(deps),
	)

	s.AddTool(
		mcp.NewTool("get_summaries",
			mcp.WithDescription("Return per-day summary rows for a domain over a day range."),
			mcp.WithString("domain", mcp.Description("One of: meds, exercise, consumed, weight"), mcp.Required()),
			mcp.WithString("user", mcp.Description("User ID (defaults to the configured user)")),
			mcp.WithString("start", mcp.Description("First day as YYYY-MM-DD (defaults to a week before end)")),
			mcp.WithString("end", mcp.Description("Last day as YYYY-MM-DD (defaults to the user's current day)")),
			mcp.WithString("order", mcp.Description("Either desc (newest first, default) or asc")),
		),
		mcpGetSummaries(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"daylog://profile",
			"User Profile",
			mcp.WithResourceDescription("The configured user's profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"daylog://summary/recent",
			"Recent Summaries",
			mcp.WithResourceDescription("Last 7 days of summaries for the configured user, all domains"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

// mcpUserDay resolves the user and day arguments shared by the logging tools.
func mcpUserDay(deps MCPDeps, req mcp.CallToolRequest) (string, string, error) {
	userID := req.GetString("user", deps.DefaultUser)
	if userID == "" {
		return "", "", fmt.Errorf("no user given and no default user configured")
	}
	day := req.GetString("day", "")
	if day == "" {
		var err error
		day, err = deps.Profile.Today(userID)
		if err != nil {
			return "", "", fmt.Errorf("resolving current day: %v", err)
		}
	}
	return userID, day, nil
}

// optFloat returns a number argument as a pointer, nil when it was not given.
func optFloat(req mcp.CallToolRequest, key string) *float64 {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	v := req.GetFloat(key, 0)
	return &v
}

func mcpLogMed(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}
		userID, day, err := mcpUserDay(deps, req)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		kind := req.GetString("kind", string(summary.MedKindMed))
		created, err := deps.Tracker.AddMed(summary.MedLog{
			UserID: userID,
			Day:    day,
			Kind:   summary.MedKind(kind),
			Name:   name,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to log: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Logged %s %q for %s (id %s)", kind, name, day, created.ID)), nil
	}
}

func mcpLogExercise(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}
		userID, day, err := mcpUserDay(deps, req)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		category := req.GetString("category", string(summary.CategoryCardioMindBody))
		created, err := deps.Tracker.AddExercise(summary.ExerciseLog{
			UserID:     userID,
			Day:        day,
			Category:   summary.ExerciseCategory(category),
			Name:       name,
			Minutes:    optFloat(req, "minutes"),
			DistanceKm: optFloat(req, "distance_km"),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to log: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Logged %s %q for %s (id %s)", category, name, day, created.ID)), nil
	}
}

func mcpLogFood(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}
		userID, day, err := mcpUserDay(deps, req)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		created, err := deps.Tracker.AddConsumed(summary.ConsumedLog{
			UserID: userID,
			Day:    day,
			Name:   name,
			Nutrients: summary.Nutrients{
				Calories:      req.GetFloat("calories", 0),
				ProteinG:      req.GetFloat("protein_g", 0),
				CarbsG:        req.GetFloat("carbs_g", 0),
				FatG:          req.GetFloat("fat_g", 0),
				FibreG:        req.GetFloat("fibre_g", 0),
				SugarG:        req.GetFloat("sugar_g", 0),
				SaturatedFatG: req.GetFloat("saturated_fat_g", 0),
				TransFatG:     req.GetFloat("trans_fat_g", 0),
				SodiumMg:      req.GetFloat("sodium_mg", 0),
			},
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to log: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Logged %q for %s (id %s)", name, day, created.ID)), nil
	}
}

func mcpLogWeight(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		weightKg, err := req.RequireFloat("weight_kg")
		if err != nil {
			return mcpError("weight_kg is required"), nil
		}
		userID, day, err := mcpUserDay(deps, req)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		created, err := deps.Tracker.AddWeight(summary.WeightLog{
			UserID:   userID,
			Day:      day,
			WeightKg: weightKg,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to log: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Logged %.1f kg for %s (id %s)", weightKg, day, created.ID)), nil
	}
}

func mcpSetDayStatus(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status, err := req.RequireString("status")
		if err != nil {
			return mcpError("status is required"), nil
		}
		userID, day, err := mcpUserDay(deps, req)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		row, err := deps.Tracker.SetConsumedStatus(userID, day, summary.DayStatus(status))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to set status: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Marked %s as %s", day, row.Status)), nil
	}
}

func mcpGetSummaries(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		domainArg, err := req.RequireString("domain")
		if err != nil {
			return mcpError("domain is required"), nil
		}
		domain, err := summary.ParseDomain(domainArg)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		userID := req.GetString("user", deps.DefaultUser)
		if userID == "" {
			return mcpError("no user given and no default user configured"), nil
		}

		order, err := series.ParseOrder(req.GetString("order", ""))
		if err != nil {
			return mcpError(err.Error()), nil
		}

		end := req.GetString("end", "")
		if end == "" {
			end, err = deps.Profile.Today(userID)
			if err != nil {
				return mcpError(fmt.Sprintf("resolving current day: %v", err)), nil
			}
		}
		start := req.GetString("start", "")
		if start == "" {
			start, err = summary.AddDays(end, -6)
			if err != nil {
				return mcpError(fmt.Sprintf("bad end day: %v", err)), nil
			}
		}

		var payload any
		switch domain {
		case summary.DomainMeds:
			payload = medsSummaries(deps.Series.Meds(userID, start, end, order))
		case summary.DomainExercise:
			payload = exerciseSummaries(deps.Series.Exercise(userID, start, end, order))
		case summary.DomainConsumed:
			payload = consumedSummaries(deps.Series.Consumed(userID, start, end, order))
		case summary.DomainWeight:
			payload = weightSummaries(deps.Series.Weights(userID, start, end, order))
		}

		b, err := json.Marshal(payload)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if deps.DefaultUser == "" {
			return nil, fmt.Errorf("no default user configured")
		}

		u, err := deps.Profile.Get(deps.DefaultUser)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}

		b, err := json.Marshal(u)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal user: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if deps.DefaultUser == "" {
			return nil, fmt.Errorf("no default user configured")
		}

		end, err := deps.Profile.Today(deps.DefaultUser)
		if err != nil {
			return nil, fmt.Errorf("resolving current day: %w", err)
		}
		start, err := summary.AddDays(end, -6)
		if err != nil {
			return nil, err
		}

		ov := deps.Series.Range(deps.DefaultUser, start, end, series.OrderNewestFirst)
		payload := map[string]any{
			"meds":     medsSummaries(ov.Meds),
			"exercise": exerciseSummaries(ov.Exercise),
			"consumed": consumedSummaries(ov.Consumed),
			"weights":  weightSummaries(ov.Weights),
		}

		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal summaries: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

type medsSummary struct {
	Day       string `json:"day"`
	MedCount  int    `json:"med_count"`
	SuppCount int    `json:"supp_count"`
}

func medsSummaries(rows []summary.MedsDay) []medsSummary {
	out := make([]medsSummary, len(rows))
	for i, row := range rows {
		out[i] = medsSummary{Day: row.Day, MedCount: row.MedCount, SuppCount: row.SuppCount}
	}
	return out
}

type exerciseSummary struct {
	Day              string  `json:"day"`
	ActivityCount    int     `json:"activity_count"`
	CardioCount      int     `json:"cardio_count"`
	CardioMinutes    float64 `json:"cardio_minutes"`
	CardioDistanceKm float64 `json:"cardio_distance_km"`
	StrengthCount    int     `json:"strength_count"`
}

func exerciseSummaries(rows []summary.ExerciseDay) []exerciseSummary {
	out := make([]exerciseSummary, len(rows))
	for i, row := range rows {
		out[i] = exerciseSummary{
			Day:              row.Day,
			ActivityCount:    row.ActivityCount,
			CardioCount:      row.CardioCount,
			CardioMinutes:    row.CardioMinutes,
			CardioDistanceKm: row.CardioDistanceKm,
			StrengthCount:    row.StrengthCount,
		}
	}
	return out
}

type consumedSummary struct {
	Day           string  `json:"day"`
	Status        string  `json:"status"`
	Calories      float64 `json:"calories"`
	ProteinG      float64 `json:"protein_g"`
	CarbsG        float64 `json:"carbs_g"`
	FatG          float64 `json:"fat_g"`
	FibreG        float64 `json:"fibre_g"`
	SugarG        float64 `json:"sugar_g"`
	SaturatedFatG float64 `json:"saturated_fat_g"`
	TransFatG     float64 `json:"trans_fat_g"`
	SodiumMg      float64 `json:"sodium_mg"`
	CompletedAt   string  `json:"completed_at,omitempty"`
}

func consumedSummaries(rows []summary.ConsumedDay) []consumedSummary {
	out := make([]consumedSummary, len(rows))
	for i, row := range rows {
		out[i] = consumedSummary{
			Day:           row.Day,
			Status:        string(row.Status),
			Calories:      row.Calories,
			ProteinG:      row.ProteinG,
			CarbsG:        row.CarbsG,
			FatG:          row.FatG,
			FibreG:        row.FibreG,
			SugarG:        row.SugarG,
			SaturatedFatG: row.SaturatedFatG,
			TransFatG:     row.TransFatG,
			SodiumMg:      row.SodiumMg,
		}
		if row.CompletedAt != nil {
			out[i].CompletedAt = row.CompletedAt.Format(time.RFC3339)
		}
	}
	return out
}

type weightSummary struct {
	Day      string   `json:"day"`
	WeightKg *float64 `json:"weight_kg"`
}

func weightSummaries(rows []series.WeightPoint) []weightSummary {
	out := make([]weightSummary, len(rows))
	for i, row := range rows {
		out[i] = weightSummary{Day: row.Day, WeightKg: row.WeightKg}
	}
	return out
}
