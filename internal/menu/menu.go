package menu

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"media-inspector/internal/classifier"
	"media-inspector/internal/settings"
)

// ActionKind is what activating an entry does.
type ActionKind string

const (
	ActionNone     ActionKind = "none"
	ActionOpen     ActionKind = "open"
	ActionOpenWith ActionKind = "open-with"
	ActionScript   ActionKind = "script"
)

// Action is attached to every entry. Path is the inspected item, App the
// application of an open-with entry, Script the program of a script entry.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Path   string     `json:"path,omitempty"`
	App    string     `json:"app,omitempty"`
	Script string     `json:"script,omitempty"`
	Args   []string   `json:"args,omitempty"`
}

// Item is one entry of the menu tree.
type Item struct {
	Title     string  `json:"title,omitempty"`
	Image     string  `json:"image,omitempty"`
	Action    Action  `json:"action"`
	Children  []*Item `json:"children,omitempty"`
	Separator bool    `json:"separator,omitempty"`
}

// Menu is the assembled menu of one item.
type Menu struct {
	Items []*Item `json:"items"`
}

// Title of the parent entry when the info is shown on a submenu.
const Title = "Media Inspector"

var (
	tokenPattern = regexp.MustCompile(`\[\[([^]]+)\]\]`)

	emptyBrackets = []*regexp.Regexp{
		regexp.MustCompile(`\s*\([\s,;|]*\)`),
		regexp.MustCompile(`\s*\[[\s,;|]*\]`),
		regexp.MustCompile(`\s*<[\s,;|]*>`),
		regexp.MustCompile(`\s*\{[\s,;|]*\}`),
	}
	repeatedSeparators = regexp.MustCompile(`[,;|]\s*([,;|])`)
	spaces             = regexp.MustCompile(`\s+`)
)

// Build renders the templates of the classified domain against the record
// returned by the helper. info is a pointer to one of the metadata record
// types; a nil info yields a nil menu.
func Build(path string, result classifier.Result, info interface{}, s settings.Settings) *Menu {
	if info == nil || result.Domain == classifier.DomainNone {
		return nil
	}
	templates := result.Settings.Templates
	if result.Custom != nil {
		templates = result.Custom.Templates
	}

	r := &renderer{path: path, info: info, scriptDir: s.ScriptDir}
	var items []*Item
	for _, t := range templates {
		item := r.item(t, s)
		if item == nil {
			continue
		}
		if !item.Separator && item.Action.Kind == "" {
			item.Action = defaultAction(path, item.Title, s)
		}
		items = append(items, item)
	}
	items = collapseSeparators(items)
	if len(items) == 0 {
		return nil
	}

	if s.InfoOnSubMenu {
		return &Menu{Items: []*Item{{
			Title:    Title,
			Action:   Action{Kind: ActionNone},
			Children: items,
		}}}
	}
	return &Menu{Items: items}
}

func defaultAction(path, title string, s settings.Settings) Action {
	switch s.MenuAction {
	case settings.ActionOpen:
		return Action{Kind: ActionOpen, Path: path}
	case settings.ActionScript:
		return Action{Kind: ActionScript, Path: path, Script: s.ActionScript, Args: []string{path, title}}
	default:
		return Action{Kind: ActionNone}
	}
}

// item renders one template. It returns nil when the entry is skipped.
func (r *renderer) item(t settings.MenuItem, s settings.Settings) *Item {
	tpl := strings.TrimSpace(t.Template)
	if tpl == "-" {
		return &Item{Separator: true}
	}
	if special, ok := r.special(tpl, t.Image); ok {
		return special
	}

	title, filled := r.render(tpl)
	if title == "" || (s.SkipEmpty && !filled) {
		return nil
	}
	return &Item{Title: title, Image: t.Image}
}

// special handles the templates made of a single action token. ok is
// false for ordinary templates; a nil item with ok set is skipped.
func (r *renderer) special(tpl, image string) (item *Item, ok bool) {
	m := tokenPattern.FindStringSubmatch(tpl)
	if m == nil || m[0] != tpl {
		return nil, false
	}
	name := m[1]
	switch {
	case name == "open":
		return &Item{Title: "Open", Image: image, Action: Action{Kind: ActionOpen, Path: r.path}}, true
	case name == "about":
		return &Item{Title: "About " + Title + "…", Image: image, Action: Action{Kind: ActionNone}}, true
	case name == "files":
		return r.filesItem(image), true
	case strings.HasPrefix(name, "open-with:"):
		app, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(name, "open-with:"))
		if err != nil || len(app) == 0 {
			return nil, true
		}
		return &Item{
			Title:  fmt.Sprintf("Open with %s…", appName(string(app))),
			Image:  image,
			Action: Action{Kind: ActionOpenWith, Path: r.path, App: string(app)},
		}, true
	case strings.HasPrefix(name, "script:"):
		script := strings.TrimPrefix(name, "script:")
		if script == "" {
			return nil, true
		}
		if r.scriptDir != "" && !filepath.IsAbs(script) {
			script = filepath.Join(r.scriptDir, script)
		}
		return &Item{
			Title:  "Run " + filepath.Base(script),
			Image:  image,
			Action: Action{Kind: ActionScript, Path: r.path, Script: script, Args: []string{r.path}},
		}, true
	}
	return nil, false
}

func appName(app string) string {
	name := filepath.Base(strings.TrimSuffix(app, "/"))
	return strings.TrimSuffix(name, ".app")
}

// render replaces every token of tpl and cleans up what the empty ones
// leave behind. filled reports whether at least one token had a value.
func (r *renderer) render(tpl string) (string, bool) {
	filled := false
	text := tokenPattern.ReplaceAllStringFunc(tpl, func(tok string) string {
		v, ok := r.token(tok[2 : len(tok)-2])
		if ok {
			filled = true
		}
		return v
	})
	return purge(text), filled
}

// purge removes empty brackets and dangling separators and capitalizes
// the first letter.
func purge(text string) string {
	for _, re := range emptyBrackets {
		text = re.ReplaceAllString(text, " ")
	}
	text = repeatedSeparators.ReplaceAllString(text, "$1")
	text = spaces.ReplaceAllString(text, " ")
	text = strings.Trim(text, " \t,;|")
	if text == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(text)
	return string(unicode.ToUpper(first)) + text[size:]
}

// collapseSeparators drops leading, trailing and repeated separators.
func collapseSeparators(items []*Item) []*Item {
	out := items[:0]
	for _, it := range items {
		if it.Separator && (len(out) == 0 || out[len(out)-1].Separator) {
			continue
		}
		out = append(out, it)
	}
	if n := len(out); n > 0 && out[n-1].Separator {
		out = out[:n-1]
	}
	return out
}
