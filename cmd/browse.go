package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/dalazx/parquet-dump/model"
)

// BrowseCmd is a kong command for interactive browsing
type BrowseCmd struct {
	URI   string `arg:"" predictor:"file" help:"Path of Parquet file."`
	Limit int64  `short:"l" default:"1000" help:"Maximum number of rows to load."`
}

// Run does the actual browse job
func (b BrowseCmd) Run() error {
	r, err := model.OpenFile(b.URI)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	app := NewBrowseApp(b.URI, r, b.Limit)
	if err := app.load(); err != nil {
		return err
	}
	return app.Run()
}

// BrowseApp represents the TUI application for browsing Parquet files
type BrowseApp struct {
	tviewApp   *tview.Application
	pages      *tview.Pages
	headerView *tview.TextView
	rowTable   *tview.Table
	schemaView *tview.TextView
	statusLine *tview.TextView

	reader      *model.FileReader
	currentFile string
	limit       int64
}

// NewBrowseApp creates a new BrowseApp instance
func NewBrowseApp(uri string, reader *model.FileReader, limit int64) *BrowseApp {
	return &BrowseApp{
		tviewApp:    tview.NewApplication(),
		pages:       tview.NewPages(),
		headerView:  tview.NewTextView().SetDynamicColors(true),
		rowTable:    tview.NewTable().SetBorders(false).SetSelectable(true, true).SetFixed(1, 0),
		schemaView:  tview.NewTextView(),
		statusLine:  tview.NewTextView().SetDynamicColors(true),
		reader:      reader,
		currentFile: uri,
		limit:       limit,
	}
}

// load decodes the rows and builds the widget tree.
func (app *BrowseApp) load() error {
	info := app.reader.GetFileInfo()
	fmt.Fprintf(app.headerView, "[yellow]%s[-]  rows=%d  row groups=%d  columns=%d  compressed=%s",
		app.currentFile, info.NumRows, info.NumRowGroups, info.NumLeafColumns,
		model.FormatBytes(info.TotalCompressedSize))

	if err := app.fillRowTable(); err != nil {
		return err
	}
	app.fillSchemaView()
	app.statusLine.SetText("[green]s[-] schema  [green]c[-] copy cell  [green]q[-] quit")

	mainLayout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(app.headerView, 1, 0, false).
		AddItem(app.rowTable, 0, 1, true).
		AddItem(app.statusLine, 1, 0, false)
	app.pages.AddPage("rows", mainLayout, true, true)
	app.pages.AddPage("schema", app.schemaView, true, false)

	app.tviewApp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		front, _ := app.pages.GetFrontPage()
		switch {
		case event.Key() == tcell.KeyEscape && front == "schema":
			app.pages.SwitchToPage("rows")
			return nil
		case event.Key() == tcell.KeyEscape, event.Rune() == 'q':
			app.tviewApp.Stop()
			return nil
		case event.Rune() == 's':
			app.pages.SwitchToPage("schema")
			return nil
		case event.Rune() == 'c' && front == "rows":
			app.copyCurrentCell()
			return nil
		}
		return event
	})
	app.tviewApp.SetRoot(app.pages, true)
	return nil
}

// fillRowTable loads up to limit rows through the dump pipeline.
func (app *BrowseApp) fillRowTable() error {
	leaves := app.reader.Schema().Leaves()
	elements := map[string]int{}
	for i, leaf := range leaves {
		elements[leaf.Name()] = i
		app.rowTable.SetCell(0, i,
			tview.NewTableCell(leaf.Name()).SetTextColor(tcell.ColorYellow).SetSelectable(false))
	}

	rowIndex := 1
	sink := func(rg model.RowGroupColumns) error {
		for i := int64(0); i < rg.NumRows; i++ {
			if int64(rowIndex) > app.limit {
				return io.EOF
			}
			for c, key := range rg.Keys {
				elem := leaves[elements[key]].Element
				text := model.FormatValue(rg.Columns[key][i], elem)
				app.rowTable.SetCell(rowIndex, c, tview.NewTableCell(text))
			}
			rowIndex++
		}
		return nil
	}
	return app.reader.Dump(model.DumpOptions{}, sink)
}

func (app *BrowseApp) fillSchemaView() {
	var sb strings.Builder
	sb.WriteString("schema (ESC to go back)\n\n")
	for _, leaf := range app.reader.Schema().Leaves() {
		elem := leaf.Element
		typ := ""
		if elem.Type != nil {
			typ = elem.Type.String()
		}
		repetition := ""
		if elem.RepetitionType != nil {
			repetition = elem.RepetitionType.String()
		}
		sb.WriteString(fmt.Sprintf("  %-30s %-22s %-10s max_def=%d max_rep=%d\n",
			leaf.Name(), typ, repetition, leaf.MaxDefinitionLevel, leaf.MaxRepetitionLevel))
	}
	app.schemaView.SetText(sb.String())
}

// copyCurrentCell puts the selected cell's text on the system clipboard.
func (app *BrowseApp) copyCurrentCell() {
	row, col := app.rowTable.GetSelection()
	cell := app.rowTable.GetCell(row, col)
	if cell == nil {
		return
	}
	if err := clipboard.WriteAll(cell.Text); err != nil {
		app.statusLine.SetText(fmt.Sprintf("[red]copy failed: %v[-]", err))
		return
	}
	app.statusLine.SetText(fmt.Sprintf("copied %q", cell.Text))
}

// Run starts the TUI event loop.
func (app *BrowseApp) Run() error {
	return app.tviewApp.Run()
}
