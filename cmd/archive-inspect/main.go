package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"trollbox/domain"
	"trollbox/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "", "Path to the transcript archive")
	limit := flag.Int("limit", 50, "Number of messages to list")
	cursor := flag.String("cursor", "", "Cursor returned by a previous listing")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("-db is required")
	}

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	var from *string
	if *cursor != "" {
		from = cursor
	}

	repo := repositories.NewMessageRepository(db, logs.GetLoggerFromString("ERROR"))
	messages, next, err := repo.GetMessages(*limit, from)
	if err != nil {
		log.Fatal(err)
	}

	render(messages)
	if next != nil {
		fmt.Printf("\nnext cursor: %s\n", *next)
	}
}

func render(messages []domain.Message) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Sent at", "ID", "Alias", "Text"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("\t")

	for _, m := range messages {
		table.Append([]string{
			m.SentAt.Format("2006-01-02 15:04:05"),
			m.ID.String()[:8],
			m.Alias,
			m.Text,
		})
	}
	table.Render()
}
