package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/shelf/internal/catalog"
)

// RenderList renders the visible window of products with the cursor row
// highlighted. empty is shown when there is nothing to list.
func RenderList(products []catalog.Product, cursor, width, height int, empty string) string {
	if len(products) == 0 {
		return HelpStyle.Render(empty) + "\n"
	}

	if height < 1 {
		height = 1
	}
	offset := calcScrollOffset(len(products), cursor, height)

	var b strings.Builder
	for i := offset; i < len(products) && i-offset < height; i++ {
		b.WriteString(renderProductLine(products[i], i == cursor, width))
		b.WriteString("\n")
	}
	return b.String()
}

// calcScrollOffset returns the first visible index that keeps cursor on screen.
func calcScrollOffset(total, cursor, height int) int {
	if total == 0 || cursor < 0 {
		return 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	if cursor >= height {
		return cursor - height + 1
	}
	return 0
}

func renderProductLine(p catalog.Product, selected bool, width int) string {
	line := truncate(catalog.FormatLine(p), width-2)
	if selected {
		return SelectedItem.Width(width).Render(line)
	}
	return NormalItem.Render(line)
}

// truncate shortens s to at most limit display cells, marking the cut.
func truncate(s string, limit int) string {
	if limit <= 0 || lipgloss.Width(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// RenderControls renders the category and sort selectors.
func RenderControls(params catalog.ViewParameters, mode string, width int) string {
	parts := []string{
		FilterBarLabel.Render("Category:") + " " + CategoryBadge.Render(params.Normalize().Category),
		FilterBarLabel.Render("Sort:") + " " + params.Sort.Label(),
	}
	if mode != "" {
		parts = append(parts, FilterBarLabel.Render("Filtering:")+" "+mode)
	}
	return FilterBar.Width(width).Render(strings.Join(parts, "   "))
}

// RenderStatusBar renders the bottom status bar with key hints and counts.
func RenderStatusBar(cursor, shown, total, width int, loading bool) string {
	var position string
	switch {
	case loading:
		position = " Loading... "
	case shown == 0:
		position = fmt.Sprintf(" 0/%d ", total)
	default:
		position = fmt.Sprintf(" %d/%d (of %d) ", cursor+1, shown, total)
	}

	keys := []string{
		StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
		StatusBarKey.Render("/") + StatusBarText.Render(":search"),
		StatusBarKey.Render("c") + StatusBarText.Render(":category"),
		StatusBarKey.Render("s") + StatusBarText.Render(":sort"),
		StatusBarKey.Render("x") + StatusBarText.Render(":clear"),
		StatusBarKey.Render("r") + StatusBarText.Render(":reload"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	keyHints := strings.Join(keys, " ")

	padding := width - lipgloss.Width(position) - lipgloss.Width(keyHints)
	if padding < 0 {
		padding = 0
	}
	return StatusBar.Width(width).Render(position + strings.Repeat(" ", padding) + keyHints)
}
