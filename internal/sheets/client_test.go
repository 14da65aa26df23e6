package sheets

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListQuestions(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"values": [][]any{
				{" 2+2=? ", "3,4,5"},
				{"   "},
				{"Capital of France?"},
				{"Dated one", "", "2025-06-01"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{SpreadsheetID: "sheet-id", Token: "tok", BaseURL: srv.URL})
	rows, err := c.ListQuestions()
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if gotPath != "/sheet-id/values/Sheet1!A2:C" {
		t.Fatalf("request path = %q", gotPath)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (blank row dropped)", len(rows))
	}
	if rows[0].Text != "2+2=?" || rows[0].Choices != "3,4,5" {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1].Text != "Capital of France?" || rows[1].Choices != "" {
		t.Fatalf("row 1 = %+v", rows[1])
	}
	if rows[2].Date != "2025-06-01" {
		t.Fatalf("row 2 date = %q", rows[2].Date)
	}
}

func TestListQuestionsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{SpreadsheetID: "sheet-id", BaseURL: srv.URL})
	if _, err := c.ListQuestions(); err == nil {
		t.Fatal("expected error on non-2xx status")
	}
}

func TestAppend(t *testing.T) {
	var gotPath, gotQuery, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewClient(Config{SpreadsheetID: "sheet-id", BaseURL: srv.URL})
	if err := c.Append([]string{"Ann", "4", "2025-09-17 10:00:00", "2+2=?"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if gotPath != "/sheet-id/values/Sheet1!D:G:append" {
		t.Fatalf("append path = %q", gotPath)
	}
	if gotQuery != "valueInputOption=RAW&insertDataOption=INSERT_ROWS" {
		t.Fatalf("append query = %q", gotQuery)
	}
	var body struct {
		Values [][]string `json:"values"`
	}
	if err := json.Unmarshal([]byte(gotBody), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Values) != 1 || body.Values[0][0] != "Ann" || body.Values[0][3] != "2+2=?" {
		t.Fatalf("append body = %s", gotBody)
	}
}

func TestInsertRowAfterHeader(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewClient(Config{SpreadsheetID: "sheet-id", BaseURL: srv.URL, AnswerSheetID: 42})
	idx, err := c.InsertRowAfterHeader()
	if err != nil {
		t.Fatalf("InsertRowAfterHeader: %v", err)
	}
	if idx != 2 {
		t.Fatalf("blank row index = %d, want 2", idx)
	}
	if gotPath != "/sheet-id:batchUpdate" {
		t.Fatalf("batchUpdate path = %q", gotPath)
	}
	var body struct {
		Requests []struct {
			InsertDimension struct {
				Range struct {
					SheetID    int64  `json:"sheetId"`
					Dimension  string `json:"dimension"`
					StartIndex int    `json:"startIndex"`
					EndIndex   int    `json:"endIndex"`
				} `json:"range"`
			} `json:"insertDimension"`
		} `json:"requests"`
	}
	if err := json.Unmarshal([]byte(gotBody), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	rng := body.Requests[0].InsertDimension.Range
	if rng.SheetID != 42 || rng.Dimension != "ROWS" || rng.StartIndex != 1 || rng.EndIndex != 2 {
		t.Fatalf("insert range = %+v", rng)
	}
}

func TestWriteRowTargetsHeaderAdjacentRow(t *testing.T) {
	var gotMethod, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewClient(Config{SpreadsheetID: "sheet-id", BaseURL: srv.URL})
	if err := c.WriteRow(2, []string{"Ann", "4", "2025-09-17 10:00:00", "2+2=?"}); err != nil {
		t.Fatalf("WriteRow: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("method = %s, want PUT", gotMethod)
	}
	if gotPath != "/sheet-id/values/Sheet1!D2:G2" {
		t.Fatalf("write path = %q", gotPath)
	}
	if gotQuery != "valueInputOption=RAW" {
		t.Fatalf("write query = %q", gotQuery)
	}
}
