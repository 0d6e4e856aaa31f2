package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key       string
	Type      string
	Status    string
	Members   string
	Timestamp string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartDebugServer exposes a read-only view of the store for local
// debugging. Never reachable in production: it binds only when a debug
// port is configured.
func StartDebugServer(db *badger.DB, port int, mapper RowMapper, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = DefaultMapper
	}

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "participant:"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}

		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

// DefaultMapper renders the store's own key scheme: participant records,
// conversation records and the pair index.
func DefaultMapper(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:       key,
		Type:      "RAW",
		Status:    "-",
		Members:   "-",
		Timestamp: "--:--:--",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	switch {
	case strings.HasPrefix(key, "participant:"):
		row.Type = "PARTICIPANT"
		var record struct {
			ID        string    `json:"id"`
			Status    string    `json:"status"`
			UpdatedAt time.Time `json:"updated_at"`
		}
		if err := json.Unmarshal(val, &record); err == nil {
			row.Status = record.Status
			row.Members = record.ID
			row.Timestamp = record.UpdatedAt.Format("15:04:05")
		}
	case strings.HasPrefix(key, "conv:"):
		row.Type = "CONVERSATION"
		var record struct {
			Status    string    `json:"status"`
			MemberA   string    `json:"member_a"`
			MemberB   string    `json:"member_b"`
			CreatedAt time.Time `json:"created_at"`
		}
		if err := json.Unmarshal(val, &record); err == nil {
			row.Status = record.Status
			row.Members = record.MemberA + " / " + record.MemberB
			row.Timestamp = record.CreatedAt.Format("15:04:05")
		}
	case strings.HasPrefix(key, "pair:"):
		row.Type = "PAIR"
		row.Members = strings.TrimPrefix(key, "pair:")
		row.Detail = "-> " + string(val)
	}
	return row
}
