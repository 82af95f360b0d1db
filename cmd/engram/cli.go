package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/engram/internal/engram"
	"github.com/hpungsan/engram/internal/errors"
	"github.com/hpungsan/engram/internal/index"
	"github.com/hpungsan/engram/internal/storage"
	"github.com/hpungsan/engram/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(store *storage.Store) *cli.App {
	app := &cli.App{
		Name:    "engram",
		Usage:   "Git-native memory for coding agents",
		Version: Version,
		Commands: []*cli.Command{
			initCmd(store),
			logCmd(store),
			showCmd(store),
			deleteCmd(store),
			searchCmd(store),
			reindexCmd(store),
			webCmd(store),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// initCmd creates the init command.
func initCmd(store *storage.Store) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Enable engram capture in this repository",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "remote", Aliases: []string{"r"}, Usage: "Add engram refspecs to this remote"},
		},
		Action: func(c *cli.Context) error {
			remote := c.String("remote")
			if err := store.Init(remote); err != nil {
				return outputError(err)
			}
			out := map[string]any{"initialized": true}
			if remote != "" {
				out["remote"] = remote
			}
			return outputJSON(out)
		},
	}
}

// logCmd creates the log command.
func logCmd(store *storage.Store) *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "List stored engrams, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of entries"},
			&cli.StringFlag{Name: "agent", Aliases: []string{"a"}, Usage: "Only engrams whose agent name contains this substring"},
			&cli.BoolFlag{Name: "cost", Usage: "Include the summed cost across listed engrams"},
		},
		Action: func(c *cli.Context) error {
			if err := requireInitialized(store); err != nil {
				return outputError(err)
			}

			manifests, err := store.List(storage.ListOptions{
				Limit: c.Int("limit"),
				Agent: c.String("agent"),
			})
			if err != nil {
				return outputError(err)
			}

			out := map[string]any{
				"engrams": manifests,
				"count":   len(manifests),
			}
			if c.Bool("cost") {
				total := 0.0
				for _, m := range manifests {
					if m.TokenUsage.CostUSD != nil {
						total += *m.TokenUsage.CostUSD
					}
				}
				out["total_cost_usd"] = total
			}
			return outputJSON(out)
		},
	}
}

// showCmd creates the show command.
func showCmd(store *storage.Store) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one engram by id or unique prefix",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "intent", Usage: "Print only the intent narrative"},
			&cli.BoolFlag{Name: "transcript", Usage: "Print only the transcript (JSON lines)"},
			&cli.BoolFlag{Name: "operations", Usage: "Print only the operations"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("usage: engram show <id>"))
			}
			if err := requireInitialized(store); err != nil {
				return outputError(err)
			}

			rec, err := store.Read(c.Args().First())
			if err != nil {
				return outputError(err)
			}

			switch {
			case c.Bool("intent"):
				fmt.Print(rec.Intent.Render())
				return nil
			case c.Bool("transcript"):
				data, err := rec.Transcript.Encode()
				if err != nil {
					return outputError(err)
				}
				os.Stdout.Write(data)
				return nil
			case c.Bool("operations"):
				return outputJSON(rec.Operations)
			}

			return outputJSON(map[string]any{
				"manifest":   rec.Manifest,
				"intent":     rec.Intent.Render(),
				"transcript": rec.Transcript,
				"operations": rec.Operations,
				"lineage":    rec.Lineage,
			})
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(store *storage.Store) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete an engram's reference",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("usage: engram delete <id>"))
			}
			if err := requireInitialized(store); err != nil {
				return outputError(err)
			}

			id, err := store.Resolve(c.Args().First())
			if err != nil {
				return outputError(err)
			}
			if err := store.Delete(id.String()); err != nil {
				return outputError(err)
			}
			removeFromIndex(store, id)

			return outputJSON(map[string]any{"deleted": id})
		},
	}
}

// searchCmd creates the search command.
func searchCmd(store *storage.Store) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search over stored engrams",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of results"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("usage: engram search <query>"))
			}
			if err := requireInitialized(store); err != nil {
				return outputError(err)
			}

			ix, err := openIndex(store)
			if err != nil {
				return outputError(err)
			}
			defer ix.Close()

			results, err := ix.Search(joinArgs(c), c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"results": results,
				"count":   len(results),
			})
		},
	}
}

// reindexCmd creates the reindex command.
func reindexCmd(store *storage.Store) *cli.Command {
	return &cli.Command{
		Name:  "reindex",
		Usage: "Rebuild the search index from the stored engrams",
		Action: func(c *cli.Context) error {
			if err := requireInitialized(store); err != nil {
				return outputError(err)
			}

			ix, err := openIndex(store)
			if err != nil {
				return outputError(err)
			}
			defer ix.Close()

			n, err := ix.Reindex(store)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"indexed": n})
		},
	}
}

// webCmd creates the web command.
func webCmd(store *storage.Store) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start the engram viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 7420, Usage: "Port"},
		},
		Action: func(c *cli.Context) error {
			if err := requireInitialized(store); err != nil {
				return outputError(err)
			}
			srv := web.NewServer(store, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

func requireInitialized(store *storage.Store) error {
	if !store.IsInitialized() {
		return errors.NewNotInitialized()
	}
	return nil
}

func openIndex(store *storage.Store) (*index.Index, error) {
	gitDir, err := store.GitDir()
	if err != nil {
		return nil, err
	}
	return index.Open(gitDir)
}

// removeFromIndex drops a deleted engram's index row. Best-effort: a
// stale row only costs a dangling search hit until the next reindex.
func removeFromIndex(store *storage.Store, id engram.ID) {
	ix, err := openIndex(store)
	if err != nil {
		return
	}
	defer ix.Close()
	_ = ix.Remove(id)
}

// joinArgs joins positional args into one query string.
func joinArgs(c *cli.Context) string {
	return strings.Join(c.Args().Slice(), " ")
}

// outputJSON prints indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if engramErr, ok := err.(*errors.EngramError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", engramErr.Code, engramErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
