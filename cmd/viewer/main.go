package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"chatnet/internal"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

// Read-only operator viewer: dumps archived messages, accounts and bans
// as tables, or serves the HTML inspector with -serve.
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	serve := flag.Bool("serve", false, "Start the HTML inspector instead of dumping")
	port := flag.Int("port", 8090, "Inspector port")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *serve {
		stats := func() map[string]any {
			return map[string]any{
				"Status": "Viewer Mode (Read-Only)",
				"Time":   time.Now().Format(time.RFC822),
			}
		}
		header := color.New(color.BgBlack, color.FgGreen).
			Render(fmt.Sprintf("Viewer started at http://localhost:%d/inspect", *port))
		fmt.Println(header)
		internal.StartDebugServer(db, *port, "/inspect", nil, stats)
		select {}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Author", "Room", "Content"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			err := item.Value(func(v []byte) error {
				table.Append(rowFor(rawKey, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// rowFor decodes a value based on its key namespace. Unknown formats
// fall back to a raw size row instead of stopping the dump.
func rowFor(key string, val []byte) []string {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var m struct {
			AuthorName string `json:"author_name"`
			Room       string `json:"room"`
			Kind       string `json:"kind"`
			Content    string `json:"content"`
			At         int64  `json:"at"`
		}
		if err := json.Unmarshal(val, &m); err != nil {
			fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
			break
		}
		return []string{key, strings.ToUpper(m.Kind),
			time.Unix(0, m.At).Format("15:04:05"), m.AuthorName, m.Room, m.Content}

	case strings.HasPrefix(key, "ban:"):
		var b struct {
			Reason string `json:"reason"`
			At     int64  `json:"at"`
		}
		if err := json.Unmarshal(val, &b); err == nil {
			return []string{key, "BAN", time.Unix(b.At, 0).Format("15:04:05"),
				strings.TrimPrefix(key, "ban:"), "-", b.Reason}
		}

	case strings.HasPrefix(key, "account:"):
		var a struct {
			Username string `json:"username"`
			Role     string `json:"role"`
			Banned   bool   `json:"banned"`
			Muted    bool   `json:"muted"`
		}
		if err := json.Unmarshal(val, &a); err == nil {
			flags := ""
			if a.Banned {
				flags += "banned "
			}
			if a.Muted {
				flags += "muted"
			}
			return []string{key, "ACCOUNT", "-", a.Username, a.Role, flags}
		}
	}
	return []string{key, "RAW", "-", "-", "-", fmt.Sprintf("%d bytes", len(val))}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
