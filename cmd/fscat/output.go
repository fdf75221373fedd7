package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"fscat/internal/catalog"
	"fscat/internal/config"
	"fscat/internal/snapshot"
)

var (
	dirStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	actionStyles = map[catalog.SyncAction]lipgloss.Style{
		catalog.SyncCreated:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		catalog.SyncUpdated:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		catalog.SyncReplaced: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		catalog.SyncDeleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

func printCollections(w io.Writer, cs []*catalog.Collection) {
	nameWidth := len("NAME")
	for _, c := range cs {
		nameWidth = max(nameWidth, len(c.Name))
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s  %s", nameWidth, "NAME", "PATH")))
	for _, c := range cs {
		fmt.Fprintf(w, "%-*s  %s\n", nameWidth, c.Name, c.Path)
	}
}

// formatTreeLine renders one entry of `fscat tree`.
func formatTreeLine(depth int, e *catalog.DirEntry) string {
	indent := strings.Repeat("  ", depth)
	modified := humanize.Time(catalog.FromDBTime(e.ModTime))
	if e.IsDir {
		return indent + dirStyle.Render(e.Name+"/") + "  " + dimStyle.Render(modified)
	}
	return fmt.Sprintf("%s%s  %s", indent, e.Name,
		dimStyle.Render(humanize.IBytes(uint64(e.Size))+", "+modified))
}

func formatSyncChange(ch *catalog.SyncChange) string {
	label := fmt.Sprintf("%-8s", ch.Action)
	if style, ok := actionStyles[ch.Action]; ok {
		label = style.Render(label)
	}
	line := label + " " + ch.Path
	if ch.Action == catalog.SyncUpdated || ch.Action == catalog.SyncReplaced {
		line += dimStyle.Render(" (" + ch.Result.String() + ")")
	}
	return line
}

func checkSnapshotStore(cfg *config.Config) error {
	store, err := snapshot.NewStoreFromConfig(cfg.Snapshot)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("no snapshot store configured")
	}
	if err := store.ValidateSetup(); err != nil {
		return err
	}
	v, err := store.Version(cfg.CatalogID)
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot store %q is reachable (latest version %d)\n", cfg.Snapshot.Type, v)
	return nil
}
