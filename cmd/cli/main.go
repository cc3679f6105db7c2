package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	serverURL    string
	serverConfig string
	noAutoStart  bool
	rootCmd      = &cobra.Command{
		Use:   "dlqueue",
		Short: "dlqueue CLI - control the download queue",
		Long:  `A command-line interface for enqueuing, inspecting and controlling downloads held by dlqueue-server.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().StringVar(&serverConfig, "server-config", "", "Config file passed to an auto-started server")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(newBatchCmd("pause", "Pause downloads", "/api/v1/downloads/pause", http.MethodPost))
	rootCmd.AddCommand(newBatchCmd("resume", "Resume paused downloads", "/api/v1/downloads/resume", http.MethodPost))
	rootCmd.AddCommand(newBatchCmd("restart", "Restart finished downloads from scratch", "/api/v1/downloads/restart", http.MethodPost))
	rootCmd.AddCommand(newBatchCmd("delete", "Mark downloads deleted", "/api/v1/downloads/delete", http.MethodPost))
	rootCmd.AddCommand(newBatchCmd("remove", "Remove downloads from the store", "/api/v1/downloads", http.MethodDelete))
	rootCmd.AddCommand(logsCmd)
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

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// call sends a JSON request and decodes the response into out. Non-2xx
// responses are returned as errors carrying the server's message.
func call(method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, serverURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// download mirrors the public columns returned by the API
type download struct {
	ID           int64   `json:"_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	URI          string  `json:"uri"`
	MediaType    string  `json:"media_type"`
	TotalSize    int64   `json:"total_size"`
	LocalURI     *string `json:"local_uri"`
	Status       int     `json:"status"`
	Reason       int64   `json:"reason"`
	BytesSoFar   int64   `json:"bytes_so_far"`
	LastModified int64   `json:"last_modified_timestamp"`
}

var statusNames = map[int]string{1: "PENDING", 2: "RUNNING", 4: "PAUSED", 8: "SUCCESSFUL", 16: "FAILED"}

func statusName(status int) string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return strconv.Itoa(status)
}

func formatSize(n int64) string {
	if n < 0 {
		return "?"
	}
	return humanize.Bytes(uint64(n))
}

func formatModified(millis int64) string {
	return humanize.Time(time.Unix(0, millis*int64(time.Millisecond)))
}

var addCmd = &cobra.Command{
	Use:   "add [uri]",
	Short: "Add a download to the queue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		payload := map[string]interface{}{"uri": args[0]}
		for _, flag := range []string{"title", "description", "mime_type", "destination_uri", "destination_dir", "dir_type", "sub_path"} {
			if value, _ := cmd.Flags().GetString(strings.ReplaceAll(flag, "_", "-")); value != "" {
				payload[flag] = value
			}
		}
		if cmd.Flags().Changed("hidden") {
			hidden, _ := cmd.Flags().GetBool("hidden")
			payload["visible_in_downloads_ui"] = !hidden
		}

		headers, _ := cmd.Flags().GetStringArray("header")
		var parsed []map[string]string
		for _, h := range headers {
			name, value, ok := strings.Cut(h, ":")
			if !ok {
				fail(fmt.Errorf("header %q must be Name: value", h))
			}
			parsed = append(parsed, map[string]string{"name": strings.TrimSpace(name), "value": strings.TrimSpace(value)})
		}
		if len(parsed) > 0 {
			payload["headers"] = parsed
		}

		var result struct {
			ID int64 `json:"id"`
		}
		if err := call(http.MethodPost, "/api/v1/downloads", payload, &result); err != nil {
			fail(err)
		}
		fmt.Printf("Download added successfully!\n")
		fmt.Printf("ID: %d\n", result.ID)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List downloads",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		params := url.Values{}
		if status, _ := cmd.Flags().GetString("status"); status != "" {
			params.Set("status", status)
		}
		if visible, _ := cmd.Flags().GetBool("visible-only"); visible {
			params.Set("visible_only", "true")
		}
		if orderBy, _ := cmd.Flags().GetString("order-by"); orderBy != "" {
			params.Set("order_by", orderBy)
			order, _ := cmd.Flags().GetString("order")
			params.Set("order", order)
		}

		path := "/api/v1/downloads"
		if len(params) > 0 {
			path += "?" + params.Encode()
		}

		var downloads []download
		if err := call(http.MethodGet, path, nil, &downloads); err != nil {
			fail(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tREASON\tPROGRESS\tSIZE\tMODIFIED\tURI")
		for _, d := range downloads {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
				d.ID,
				statusName(d.Status),
				d.Reason,
				formatSize(d.BytesSoFar),
				formatSize(d.TotalSize),
				formatModified(d.LastModified),
				truncate(d.URI, 48))
		}
		w.Flush()
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get download details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var d download
		if err := call(http.MethodGet, "/api/v1/downloads/"+url.PathEscape(args[0]), nil, &d); err != nil {
			fail(err)
		}

		fmt.Printf("Download Details:\n")
		fmt.Printf("  ID:       %d\n", d.ID)
		fmt.Printf("  URI:      %s\n", d.URI)
		if d.Title != "" {
			fmt.Printf("  Title:    %s\n", d.Title)
		}
		if d.MediaType != "" {
			fmt.Printf("  Type:     %s\n", d.MediaType)
		}
		fmt.Printf("  Status:   %s\n", statusName(d.Status))
		if d.Reason != 0 {
			fmt.Printf("  Reason:   %d\n", d.Reason)
		}
		fmt.Printf("  Progress: %s / %s\n", formatSize(d.BytesSoFar), formatSize(d.TotalSize))
		fmt.Printf("  Modified: %s\n", formatModified(d.LastModified))
		if d.LocalURI != nil {
			fmt.Printf("  File:     %s\n", *d.LocalURI)
		}
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var stats map[string]int64
		if err := call(http.MethodGet, "/api/v1/downloads/stats", nil, &stats); err != nil {
			fail(err)
		}

		fmt.Println("Download Statistics:")
		fmt.Printf("  Total:      %s\n", humanize.Comma(stats["total"]))
		fmt.Printf("  Pending:    %s\n", humanize.Comma(stats["pending"]))
		fmt.Printf("  Running:    %s\n", humanize.Comma(stats["running"]))
		fmt.Printf("  Paused:     %s\n", humanize.Comma(stats["paused"]))
		fmt.Printf("  Successful: %s\n", humanize.Comma(stats["successful"]))
		fmt.Printf("  Failed:     %s\n", humanize.Comma(stats["failed"]))
	},
}

// newBatchCmd builds a command that sends its id arguments to a batch endpoint
func newBatchCmd(use, short, path, method string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ensureServer()

			ids, err := parseIDs(args)
			if err != nil {
				fail(err)
			}

			var result map[string]interface{}
			if err := call(method, path, map[string]interface{}{"ids": ids}, &result); err != nil {
				fail(err)
			}
			if affected, ok := result["affected"]; ok {
				fmt.Printf("%s: %v download(s) affected\n", use, affected)
				return
			}
			fmt.Println(result["message"])
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View queue or error logs",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		category := "queue"
		if len(args) == 1 {
			category = args[0]
		}
		limit, _ := cmd.Flags().GetInt("limit")
		search, _ := cmd.Flags().GetString("search")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		params := url.Values{}
		params.Set("limit", strconv.Itoa(limit))
		path := "/api/v1/logs/" + url.PathEscape(category)
		if search != "" {
			path += "/search"
			params.Set("q", search)
		}

		var result struct {
			Entries []map[string]interface{} `json:"entries"`
		}
		if err := call(http.MethodGet, path+"?"+params.Encode(), nil, &result); err != nil {
			fail(err)
		}

		if jsonOutput {
			prettyJSON, _ := json.MarshalIndent(result.Entries, "", "  ")
			fmt.Println(string(prettyJSON))
			return
		}
		for _, entry := range result.Entries {
			fmt.Printf("%v %-5v %v", entry["ts"], entry["level"], entry["msg"])
			if fields, ok := entry["fields"].(map[string]interface{}); ok {
				data, _ := json.Marshal(fields)
				fmt.Printf(" %s", data)
			}
			fmt.Println()
		}
	},
}

func init() {
	addCmd.Flags().StringP("title", "t", "", "Title")
	addCmd.Flags().StringP("description", "d", "", "Description")
	addCmd.Flags().String("mime-type", "", "Media type")
	addCmd.Flags().String("destination-uri", "", "Explicit destination file URI")
	addCmd.Flags().String("destination-dir", "", "Server-resolved destination directory (files, public)")
	addCmd.Flags().String("dir-type", "", "Directory type under the destination directory")
	addCmd.Flags().String("sub-path", "", "Path below the destination directory")
	addCmd.Flags().StringArrayP("header", "H", nil, "Request header as 'Name: value' (repeatable)")
	addCmd.Flags().Bool("hidden", false, "Hide from the downloads UI")

	listCmd.Flags().StringP("status", "s", "", "Filter by status, e.g. paused|failed")
	listCmd.Flags().Bool("visible-only", false, "Only downloads visible in the downloads UI")
	listCmd.Flags().String("order-by", "", "Sort column (last_modified_timestamp, total_size)")
	listCmd.Flags().String("order", "desc", "Sort direction (asc, desc)")

	logsCmd.Flags().IntP("limit", "n", 50, "Number of entries")
	logsCmd.Flags().StringP("search", "q", "", "Only entries containing this text")
	logsCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
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
