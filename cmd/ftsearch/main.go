// Copyright 2025 Viewfinder Co.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	fulltext "github.com/viewfinderco/viewfinder-sub006"
	"github.com/viewfinderco/viewfinder-sub006/doctable"
	"github.com/viewfinderco/viewfinder-sub006/index"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "ftsearch",
		Usage: "Embedded full-text search index over BadgerDB",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:     "db",
				Aliases:  []string{"d"},
				Usage:    "Path to the database directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Index name",
				Value:   "notes",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Index a document (text given as arguments)",
				ArgsUsage: "<text>...",
				Action:    addCommand,
			},
			{
				Name:      "rm",
				Usage:     "Remove a document by id",
				ArgsUsage: "<id>",
				Action:    rmCommand,
			},
			{
				Name:      "search",
				Usage:     "Search the index",
				ArgsUsage: "<query>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "prefix",
						Usage: "Match query words as prefixes",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum results to print",
						Value: 20,
					},
				},
				Action: searchCommand,
			},
			{
				Name:      "suggest",
				Usage:     "Autocomplete a term prefix",
				ArgsUsage: "<prefix>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum suggestions to print",
						Value: 10,
					},
				},
				Action: suggestCommand,
			},
			{
				Name:      "seed",
				Usage:     "Bulk-index a file of documents, one per line",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent indexing workers",
						Value: 4,
					},
				},
				Action: seedCommand,
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild postings for every stored document",
				Action: reindexCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.String("log-level"), err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func openTable(c *cli.Context) (*fulltext.Database, *doctable.Table, error) {
	db, err := fulltext.NewDatabase(c.String("db"))
	if err != nil {
		return nil, nil, err
	}
	ix, err := db.Index(c.String("index"))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, doctable.NewTable(db.Backend(), ix), nil
}

func addCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no text given")
	}
	db, table, err := openTable(c)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := table.SaveContent(strings.Join(c.Args().Slice(), " "))
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func rmCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one id")
	}
	db, table, err := openTable(c)
	if err != nil {
		return err
	}
	defer db.Close()

	return table.Delete(c.Args().First())
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no query given")
	}
	db, table, err := openTable(c)
	if err != nil {
		return err
	}
	defer db.Close()

	query := strings.Join(c.Args().Slice(), " ")
	results, err := db.Search(query,
		index.ParseOptions{MatchPrefix: c.Bool("prefix")}, c.String("index"))
	if err != nil {
		return err
	}
	defer results.Close()

	printed := 0
	for ; results.Valid() && printed < c.Int("limit"); results.Next() {
		id := string(results.DocID())

		line := id
		if record, err := table.Get(id); err == nil {
			line = fmt.Sprintf("%s  %s", id, highlight(results, record.Text))
		}
		fmt.Println(line)
		printed++
	}
	return nil
}

// highlight wraps matched raw terms in the document text with guillemets.
func highlight(results index.ResultIterator, text string) string {
	rawTerms := map[string]struct{}{}
	results.RawTerms(rawTerms)
	if len(rawTerms) == 0 {
		return text
	}
	terms := make([]string, 0, len(rawTerms))
	for term := range rawTerms {
		terms = append(terms, term)
	}
	re, err := index.BuildFilterRegex(terms)
	if err != nil {
		return text
	}
	return re.ReplaceAllStringFunc(text, func(m string) string {
		loc := re.FindStringSubmatchIndex(m)
		if loc == nil {
			return m
		}
		return m[:loc[2]] + "«" + m[loc[2]:loc[3]] + "»" + m[loc[3]:]
	})
}

func suggestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one prefix")
	}
	db, _, err := openTable(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ix, err := db.Index(c.String("index"))
	if err != nil {
		return err
	}
	suggestions, err := ix.GetSuggestions(c.Args().First(), c.Int("limit"))
	if err != nil {
		return err
	}
	for _, s := range suggestions {
		fmt.Printf("%6d  %s\n", s.Count, s.Term)
	}
	return nil
}

func seedCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file")
	}
	db, table, err := openTable(c)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	g, _ := errgroup.WithContext(c.Context)
	g.SetLimit(c.Int("workers"))

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		count++
		g.Go(func() error {
			_, err := table.SaveContent(line)
			return err
		})
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := g.Wait(); err != nil {
		return err
	}
	db.Drain()
	fmt.Printf("indexed %d documents\n", count)
	return nil
}

func reindexCommand(c *cli.Context) error {
	db, table, err := openTable(c)
	if err != nil {
		return err
	}
	defer db.Close()

	count, err := table.Reindex(c.Context)
	if err != nil {
		return err
	}
	db.Drain()
	fmt.Printf("reindexed %d documents\n", count)
	return nil
}
