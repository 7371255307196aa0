package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/wadjakorntonsri/linkboard/pkg/adapters/repository"
	"github.com/wadjakorntonsri/linkboard/pkg/config"
	"github.com/wadjakorntonsri/linkboard/pkg/core/domain"
	"github.com/wadjakorntonsri/linkboard/pkg/ports"
)

// openFunc returns the repository a command works on
type openFunc func(ctx context.Context, c *cli.Command) (ports.LinkRepository, error)

func main() {
	if err := newApp(openConfigured).Run(context.Background(), os.Args); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func openConfigured(_ context.Context, c *cli.Command) (ports.LinkRepository, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	return repository.Open(cfg)
}

func newApp(open openFunc) *cli.Command {
	return &cli.Command{
		Name:  "linkboard-cli",
		Usage: "Administer the link board store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to YAML config file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write every link as JSON to stdout",
				Action: func(ctx context.Context, c *cli.Command) error {
					repo, err := open(ctx, c)
					if err != nil {
						return err
					}
					defer repo.Close()
					return doExport(ctx, repo, c.Root().Writer)
				},
			},
			{
				Name:  "import",
				Usage: "Load links from a JSON file produced by export",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "JSON file to import",
						Required: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					repo, err := open(ctx, c)
					if err != nil {
						return err
					}
					defer repo.Close()
					return doImport(ctx, repo, c.String("file"), c.Root().Writer)
				},
			},
			{
				Name:  "user",
				Usage: "Manage users",
				Commands: []*cli.Command{
					{
						Name:  "add",
						Usage: "Create a user and print its id",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Usage: "display name", Required: true},
							&cli.StringFlag{Name: "email", Usage: "email address", Required: true},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							repo, err := open(ctx, c)
							if err != nil {
								return err
							}
							defer repo.Close()

							user := domain.User{Name: c.String("name"), Email: c.String("email")}
							if err := repo.CreateUser(ctx, &user); err != nil {
								return fmt.Errorf("failed to add user: %w", err)
							}
							_, err = fmt.Fprintf(c.Root().Writer, "%d\n", user.ID)
							return err
						},
					},
				},
			},
		},
	}
}

func doExport(ctx context.Context, repo ports.LinkRepository, w io.Writer) error {
	links, err := repo.Dump(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(links); err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}
	return nil
}

// doImport inserts each link under a fresh id. Links whose poster does not
// exist are skipped and reported.
func doImport(ctx context.Context, repo ports.LinkRepository, filename string, w io.Writer) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var links []domain.Link
	if err := json.NewDecoder(file).Decode(&links); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}

	count, skipped := 0, 0
	for _, l := range links {
		oldID := l.ID
		l.ID = 0
		if err := repo.Create(ctx, &l); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				fmt.Fprintf(w, "skipping link %d: poster %d not found\n", oldID, l.PostedByID)
				skipped++
				continue
			}
			return fmt.Errorf("failed to import link %d: %w", oldID, err)
		}
		count++
	}
	_, err = fmt.Fprintf(w, "imported %d links, skipped %d\n", count, skipped)
	return err
}
