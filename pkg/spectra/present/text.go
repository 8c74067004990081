// Package present renders match results and pipeline state for a terminal.
package present

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/himanishpuri/spectra/pkg/logger"
	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

const (
	noMatchLine    = "No matches found, try again!"
	noImage        = "No Image"
	introLine      = "Press Enter to start recording a song snippet, and Spectra will find the match for you!"
	recordingLine  = "Listening... press Enter to stop early."
	processingLine = "Trying to find a match..."
)

// Presenter writes a ranked candidate list.
type Presenter interface {
	Render(w io.Writer, candidates []model.MatchCandidate) error
}

// FormatConfidence renders a [0,1] confidence as a percentage with one decimal.
func FormatConfidence(c float64) string {
	// Round half away from zero on the tenth of a percent; %.1f alone
	// rounds ties to even (0.8125 would print 81.2%).
	return fmt.Sprintf("%.1f%%", math.Round(c*1000)/10)
}

// TextPresenter renders candidates as a table.
type TextPresenter struct {
	// Hyperlinks turns titles into terminal hyperlinks to the source page.
	// Without them the page URL gets its own column.
	Hyperlinks bool
}

// NewTextPresenter enables hyperlinks when w is a terminal.
func NewTextPresenter(w io.Writer) *TextPresenter {
	return &TextPresenter{Hyperlinks: logger.IsTerminal(w)}
}

func (p *TextPresenter) Render(w io.Writer, candidates []model.MatchCandidate) error {
	if len(candidates) == 0 {
		_, err := fmt.Fprintln(w, noMatchLine)
		return err
	}

	headers := []string{"#", "Title", "Artist", "Album", "Votes", "Confidence", "Artwork"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
	if !p.Hyperlinks {
		headers = append(headers, "Link")
		aligns = append(aligns, alignLeft)
	}

	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		title := c.DisplayTitle()
		if p.Hyperlinks && c.WebpageURL != "" {
			title = text.Hyperlink(c.WebpageURL, title)
		}
		artwork := c.AlbumArt
		if artwork == "" {
			artwork = noImage
		}
		row := []string{
			strconv.Itoa(i + 1),
			title,
			c.Artist,
			c.Album,
			strconv.Itoa(c.Votes),
			FormatConfidence(c.Confidence),
			artwork,
		}
		if !p.Hyperlinks {
			row = append(row, c.WebpageURL)
		}
		rows = append(rows, row)
	}

	if _, err := fmt.Fprintf(w, "Top %d Picks\n", len(candidates)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, renderTable(headers, rows, aligns))
	return err
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	style := table.StyleRounded
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// Table renders an arbitrary table in the same style as the results.
func Table(headers []string, rows [][]string, rightAligned ...int) string {
	aligns := make([]columnAlignment, len(headers))
	for _, i := range rightAligned {
		if i >= 0 && i < len(aligns) {
			aligns[i] = alignRight
		}
	}
	return renderTable(headers, rows, aligns)
}
