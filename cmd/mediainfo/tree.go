package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"media-inspector/internal/menu"

	"golang.org/x/term"
)

// terminalWidth returns the width of w when it is a terminal, 0 otherwise.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// printMenu writes the menu as an indented tree. Every entry is prefixed
// with the index accepted by --activate. Lines longer than width are cut;
// a zero width never cuts.
func printMenu(w io.Writer, m *menu.Menu, width int) {
	if m == nil {
		fmt.Fprintln(w, "(no menu)")
		return
	}
	printItems(w, m.Items, nil, width)
}

func printItems(w io.Writer, items []*menu.Item, parent []string, width int) {
	indent := strings.Repeat("  ", len(parent))
	for i, it := range items {
		index := append(append([]string{}, parent...), strconv.Itoa(i))
		if it.Separator {
			fmt.Fprintln(w, truncate(indent+"    ────────", width))
			continue
		}
		line := fmt.Sprintf("%s[%s] %s", indent, strings.Join(index, "."), it.Title)
		if len(it.Children) > 0 {
			line += " ▸"
		}
		fmt.Fprintln(w, truncate(line, width))
		printItems(w, it.Children, index, width)
	}
}

func truncate(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}
