// Package sheets talks to the Google Sheets v4 values API over plain HTTP.
// It implements both external faces of the engine: the question source
// (reading the question range) and the answer log (appending or inserting
// reflected answers).
package sheets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/questionoftheday/qotd/internal/services"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

type Config struct {
	SpreadsheetID string
	// Token is an OAuth2 bearer token (e.g. a service-account access
	// token minted by an external refresher).
	Token string
	// QuestionRange holds prompt, choices and optional date columns,
	// e.g. "Sheet1!A2:C". Row 1 is the human-facing header.
	QuestionRange string
	// AnswerRange holds the reflected answer columns, e.g. "Sheet1!D:G".
	AnswerRange string
	// AnswerSheetID is the numeric sheet id used for structural row
	// inserts (0 for the first sheet).
	AnswerSheetID int64
	BaseURL       string
	HTTPClient    *http.Client
}

type Client struct {
	httpClient    *http.Client
	baseURL       string
	spreadsheetID string
	token         string
	questionRange string
	answerRange   string
	answerSheetID int64
}

func NewClient(cfg Config) *Client {
	c := &Client{
		httpClient:    cfg.HTTPClient,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		spreadsheetID: cfg.SpreadsheetID,
		token:         cfg.Token,
		questionRange: cfg.QuestionRange,
		answerRange:   cfg.AnswerRange,
		answerSheetID: cfg.AnswerSheetID,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.questionRange == "" {
		c.questionRange = "Sheet1!A2:C"
	}
	if c.answerRange == "" {
		c.answerRange = "Sheet1!D:G"
	}
	return c
}

// ListQuestions reads the question range and returns trimmed rows, skipping
// rows whose first cell is empty or whitespace-only. Any request failure is
// returned whole; no partial row set is ever produced.
func (c *Client) ListQuestions() ([]services.SourceRow, error) {
	var vr struct {
		Values [][]any `json:"values"`
	}
	if err := c.do(http.MethodGet, c.valuesURL(c.questionRange), nil, &vr); err != nil {
		return nil, err
	}
	rows := make([]services.SourceRow, 0, len(vr.Values))
	for _, raw := range vr.Values {
		text := strings.TrimSpace(cell(raw, 0))
		if text == "" {
			continue
		}
		rows = append(rows, services.SourceRow{
			Text:    text,
			Choices: strings.TrimSpace(cell(raw, 1)),
			Date:    strings.TrimSpace(cell(raw, 2)),
		})
	}
	return rows, nil
}

// Append adds one row at the end of the answer range.
func (c *Client) Append(values []string) error {
	body := map[string]any{"values": [][]string{values}}
	u := c.valuesURL(c.answerRange) + ":append?valueInputOption=RAW&insertDataOption=INSERT_ROWS"
	return c.do(http.MethodPost, u, body, nil)
}

// InsertRowAfterHeader inserts one blank row immediately below the header
// row, shifting all data rows down. Returns the 1-based index of the new
// blank row.
func (c *Client) InsertRowAfterHeader() (int, error) {
	body := map[string]any{
		"requests": []any{
			map[string]any{
				"insertDimension": map[string]any{
					"range": map[string]any{
						"sheetId":    c.answerSheetID,
						"dimension":  "ROWS",
						"startIndex": 1,
						"endIndex":   2,
					},
					"inheritFromBefore": false,
				},
			},
		},
	}
	u := fmt.Sprintf("%s/%s:batchUpdate", c.baseURL, url.PathEscape(c.spreadsheetID))
	if err := c.do(http.MethodPost, u, body, nil); err != nil {
		return 0, err
	}
	return 2, nil
}

// WriteRow overwrites the answer columns of the given 1-based row.
func (c *Client) WriteRow(rowIndex int, values []string) error {
	body := map[string]any{"values": [][]string{values}}
	u := c.valuesURL(c.rowRange(rowIndex)) + "?valueInputOption=RAW"
	return c.do(http.MethodPut, u, body, nil)
}

// rowRange pins the configured answer columns to one row, e.g.
// "Sheet1!D:G" + row 2 -> "Sheet1!D2:G2".
func (c *Client) rowRange(rowIndex int) string {
	sheet := ""
	cols := c.answerRange
	if i := strings.Index(cols, "!"); i >= 0 {
		sheet = cols[:i+1]
		cols = cols[i+1:]
	}
	start, end, ok := strings.Cut(cols, ":")
	if !ok {
		end = start
	}
	return fmt.Sprintf("%s%s%d:%s%d", sheet, trimDigits(start), rowIndex, trimDigits(end), rowIndex)
}

func trimDigits(col string) string {
	return strings.TrimRight(col, "0123456789")
}

func cell(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return s
	}
	return fmt.Sprint(row[i])
}

func (c *Client) valuesURL(rng string) string {
	return fmt.Sprintf("%s/%s/values/%s", c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(rng))
}

func (c *Client) do(method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sheets: encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("sheets: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheets: %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sheets: %s %s: status %d: %s", method, rawURL, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("sheets: decode response: %w", err)
		}
	}
	return nil
}
