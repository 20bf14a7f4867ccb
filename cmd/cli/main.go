package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL   string
	channel     string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "appcatalog",
		Short: "App catalog CLI - query and refresh the application catalog",
		Long:  `A command-line interface for the application catalog server: trigger updates and query apps, categories and download statistics.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000", "Server URL")
	rootCmd.PersistentFlags().StringVarP(&channel, "type", "t", "", "Channel (stable, beta, stable_and_beta)")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(popularCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(appstreamCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(healthCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// endpoint joins path segments onto the server URL and adds ?type= when set
func endpoint(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	u := strings.TrimSuffix(serverURL, "/") + "/" + strings.Join(escaped, "/")
	if channel != "" {
		u += "?type=" + url.QueryEscape(channel)
	}
	return u
}

// fetch performs a request and decodes the JSON body into v. Non-2xx
// responses exit with the server's error message.
func fetch(method, u string, v interface{}) {
	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		fail(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fail(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fmt.Fprintf(os.Stderr, "Error (%d): %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
		os.Exit(1)
	}
	if v != nil {
		if err := json.Unmarshal(body, v); err != nil {
			fail(err)
		}
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printIDs(ids []string) {
	for _, id := range ids {
		fmt.Println(id)
	}
}

func printJSON(v interface{}) {
	pretty, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(pretty))
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Synchronize the catalog and refresh stats",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var run map[string]interface{}
		fetch(http.MethodPost, endpoint("update"), &run)

		fmt.Printf("Update completed!\n")
		fmt.Printf("Run ID:       %s\n", run["id"])
		fmt.Printf("Added stable: %v\n", run["added_stable"])
		fmt.Printf("Added beta:   %v\n", run["added_beta"])
		fmt.Printf("Removed:      %v\n", run["removed"])
		fmt.Printf("Stats apps:   %v\n", run["stats_apps"])
	},
}

var popularCmd = &cobra.Command{
	Use:   "popular [days]",
	Short: "List the most installed apps",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		u := endpoint("popular")
		if len(args) == 1 {
			u = endpoint("popular", args[0])
		}

		var ids []string
		fetch(http.MethodGet, u, &ids)
		for i, id := range ids {
			fmt.Printf("%3d. %s\n", i+1, id)
		}
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search desktop apps",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var results []map[string]interface{}
		fetch(http.MethodGet, endpoint("search", strings.Join(args, " ")), &results)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDOWNLOADS\tSUMMARY")
		for _, r := range results {
			fmt.Fprintf(w, "%s\t%s\t%v\t%s\n",
				r["id"],
				r["name"],
				r["downloads"],
				truncate(fmt.Sprint(r["summary"]), 50))
		}
		w.Flush()
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category [name]",
	Short: "List apps in a main category, most downloaded first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var ids []string
		fetch(http.MethodGet, endpoint("category", args[0]), &ids)
		printIDs(ids)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [appid]",
	Short: "Show download statistics",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		if len(args) == 1 {
			var stats map[string]interface{}
			fetch(http.MethodGet, endpoint("stats", args[0]), &stats)
			fmt.Printf("Downloads last month: %v\n", stats["downloads_last_month"])
			return
		}

		var stats struct {
			Downloads map[string]int64 `json:"downloads"`
			Updates   map[string]int64 `json:"updates"`
		}
		fetch(http.MethodGet, endpoint("stats"), &stats)

		dates := make([]string, 0, len(stats.Downloads))
		for date := range stats.Downloads {
			dates = append(dates, date)
		}
		sort.Strings(dates)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tDOWNLOADS\tUPDATES")
		for _, date := range dates {
			fmt.Fprintf(w, "%s\t%d\t%d\n", date, stats.Downloads[date], stats.Updates[date])
		}
		w.Flush()
	},
}

var appstreamCmd = &cobra.Command{
	Use:   "appstream [appid]",
	Short: "List app ids or show one app's metadata",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		if len(args) == 0 {
			var ids []string
			fetch(http.MethodGet, endpoint("appstream"), &ids)
			printIDs(ids)
			return
		}

		var record map[string]interface{}
		fetch(http.MethodGet, endpoint("appstream", args[0]), &record)
		printJSON(record)
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently updated apps",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		limit, _ := cmd.Flags().GetInt("limit")

		var ids []string
		fetch(http.MethodGet, endpoint("collection", "recently-updated", fmt.Sprint(limit)), &ids)
		printIDs(ids)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show server health and recent update runs",
	Run: func(cmd *cobra.Command, args []string) {
		var health struct {
			Status    string `json:"status"`
			Version   string `json:"version"`
			Scheduler struct {
				Running bool `json:"running"`
			} `json:"scheduler"`
			Runs []struct {
				ID           string    `json:"id"`
				Trigger      string    `json:"trigger"`
				Status       string    `json:"status"`
				StartedAt    time.Time `json:"started_at"`
				ErrorMessage string    `json:"error_message"`
			} `json:"runs"`
		}
		fetch(http.MethodGet, strings.TrimSuffix(serverURL, "/")+"/health", &health)

		fmt.Printf("Status:    %s (version %s)\n", health.Status, health.Version)
		fmt.Printf("Scheduler: %v\n", health.Scheduler.Running)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tTRIGGER\tSTATUS\tSTARTED\tERROR")
		for _, r := range health.Runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(r.ID, 8),
				r.Trigger,
				r.Status,
				r.StartedAt.Format(time.RFC3339),
				truncate(r.ErrorMessage, 40))
		}
		w.Flush()
	},
}

func init() {
	recentCmd.Flags().IntP("limit", "n", 20, "Number of apps")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
