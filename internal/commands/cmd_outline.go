package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/dyna/internal/core/outline"
	"github.com/hay-kot/dyna/pkg/iojson"
)

type OutlineCmd struct {
	flags *Flags
	app   *App

	listID   string
	parentID string
	items    iojson.FileReader[[]outline.LeveledItem]
}

// NewOutlineCmd creates a new outline command.
func NewOutlineCmd(flags *Flags, app *App) *OutlineCmd {
	return &OutlineCmd{flags: flags, app: app}
}

// Register adds the outline command to the application.
func (cmd *OutlineCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "outline",
		Usage: "Read and write Dynalist documents",
		Description: `Direct access to Dynalist documents using DYNALIST_TOKEN.

Items for 'import' are a JSON array of objects with a level (0 = top level),
a title and optional note, checked, checkbox, heading (0-3) and color (0-6).
Each item nests under the closest previous item with a smaller level.`,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Insert leveled items into a document",
				UsageText: "dyna outline import --list <id> [-f items.json]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "list",
						Aliases:     []string{"l"},
						Usage:       "document id to insert into",
						Required:    true,
						Destination: &cmd.listID,
					},
					&cli.StringFlag{
						Name:        "parent",
						Usage:       "node id to insert under (defaults to the document root)",
						Value:       outline.RootID,
						Destination: &cmd.parentID,
					},
					cmd.items.Flag(),
				},
				Action: cmd.runImport,
			},
			{
				Name:      "show",
				Usage:     "Print a document as an indented list",
				UsageText: "dyna outline show <list-id>",
				Action:    cmd.runShow,
			},
		},
	})

	return app
}

func (cmd *OutlineCmd) runImport(ctx context.Context, c *cli.Command) error {
	client, err := cmd.app.OutlineClient()
	if err != nil {
		return err
	}

	items, err := cmd.items.Read()
	if err != nil {
		return err
	}

	inserted, err := importItems(ctx, client, cmd.listID, cmd.parentID, items)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Inserted %d item(s) into %s\n", inserted, cmd.listID)
	return nil
}

// importItems builds the forest for items and inserts it under parentID.
// It returns the number of nodes written.
func importItems(ctx context.Context, client outline.Client, listID, parentID string, items []outline.LeveledItem) (int, error) {
	if len(items) == 0 {
		return 0, errors.New("no items to import")
	}
	if err := outline.ValidateItems(items); err != nil {
		return 0, err
	}

	tree := outline.BuildTree(items)
	if _, err := client.InsertTree(ctx, listID, parentID, tree); err != nil {
		return 0, fmt.Errorf("insert items: %w", err)
	}
	return outline.Count(tree), nil
}

func (cmd *OutlineCmd) runShow(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return errors.New("expected exactly one list id")
	}

	client, err := cmd.app.OutlineClient()
	if err != nil {
		return err
	}

	tree, err := client.ReadTree(ctx, c.Args().First())
	if err != nil {
		return fmt.Errorf("read list: %w", err)
	}

	_, err = fmt.Fprintln(c.Root().Writer, outline.Render(tree))
	return err
}
