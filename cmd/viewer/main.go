package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/itzme-challa/TalkStranger-chatbot/internal"
)

// Read-only console view of the pairing store. Safe to run next to a
// live bot process thanks to BypassLockGuard.
func main() {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	prefix := flag.String("prefix", "participant:", "Prefix to scan (participant:, conv:, pair:)")
	flag.Parse()

	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(" Pairing store viewer (read-only) "))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Status", "Members", "Time", "Detail"})
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
			err := item.Value(func(v []byte) error {
				row := internal.DefaultMapper(string(item.Key()), v)
				table.Append([]string{
					row.Key,
					colorType(row.Type),
					colorStatus(row.Status),
					row.Members,
					row.Timestamp,
					row.Detail,
				})
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
	fmt.Printf("\nScanned at %s\n", time.Now().Format(time.RFC822))
}

func colorType(t string) string {
	switch t {
	case "PARTICIPANT":
		return color.FgCyan.Render(t)
	case "CONVERSATION":
		return color.FgYellow.Render(t)
	case "PAIR":
		return color.FgMagenta.Render(t)
	}
	return t
}

func colorStatus(s string) string {
	switch s {
	case "available", "active":
		return color.FgGreen.Render(s)
	case "paired", "pending":
		return color.FgYellow.Render(s)
	case "offline", "ended":
		return color.FgRed.Render(s)
	}
	return s
}

