// Command inspect prints the records stored under a badger key prefix.
// It opens the database read-only and can run next to a live server.
package main

import (
	"flag"
	"fmt"
	"os"
	"social-chat/internal"
	"social-chat/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	// INSPECT_COLOURS enables colorized record types
	Colours bool `envconfig:"INSPECT_COLOURS" default:"true"`
}

func main() {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	dbPath := flag.String("db", config.BadgerFilepath, "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	limit := flag.Int("limit", 200, "Maximum number of rows")
	flag.Parse()

	if err := inspect(*dbPath, *prefix, *limit, config.Colours); err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(1)
	}
}

func inspect(path, prefix string, limit int, colours bool) error {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger: %w", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Namespace", "Detail"})
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

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes) && rows < limit; it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				row := internal.DefaultMapper(key, v)
				row.Type, row.Detail = repositories.Describe(key, v)
				kind := row.Type
				if colours {
					kind = colourOf(row.Type).Render(row.Type)
				}
				table.Append([]string{row.Key, kind, row.Timestamp, row.Namespace, row.Detail})
				return nil
			})
			if err != nil {
				return err
			}
			rows++
		}
		return nil
	})
	if err != nil {
		return err
	}

	table.Render()
	fmt.Printf("\n%d record(s) under %q\n", rows, prefix)
	return nil
}

func colourOf(kind string) color.Color {
	switch kind {
	case "MESSAGE":
		return color.FgGreen
	case "NOTIFICATION":
		return color.FgYellow
	case "USER", "REQUEST":
		return color.FgCyan
	case "POST", "LIKE", "COMMENT":
		return color.FgMagenta
	default:
		return color.FgWhite
	}
}
