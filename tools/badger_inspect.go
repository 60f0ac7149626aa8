package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
)

// Maintenance tool: dumps the raw key space of a concord store.
// Keys are namespaced by prefix (msg:, user:, server:, chan:, seq:),
// values are JSON documents except the user:id: index.
func main() {
	dbPath := flag.String("db", "/tmp/concord", "Path to badger DB")
	// msg: by default to avoid walking the user: indexes.
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	limit := flag.Int("limit", 100, "Maximum rows to print")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Fields"})
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

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes) && rows < *limit; it.Next() {
			item := it.Item()
			key := string(item.Key())

			// user:id: is a reverse index, its value is a bare username.
			if strings.HasPrefix(key, "user:id:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append([]string{key, summarize(v)})
				rows++
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
	fmt.Printf("\n%d row(s)\n", rows)
}

// summarize renders a stored JSON document as sorted key=value pairs,
// formatting nanosecond timestamps for readability.
func summarize(raw []byte) string {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Sprintf("<%d raw bytes>", len(raw))
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		value := doc[k]
		if k == "at" {
			if ns, ok := value.(float64); ok {
				value = time.Unix(0, int64(ns)).UTC().Format(time.RFC3339)
			}
		}
		// Never dump password hashes on a terminal.
		if k == "password_hash" {
			value = "<redacted>"
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k, value))
	}
	return strings.Join(parts, " ")
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)
	return badger.Open(opts)
}
