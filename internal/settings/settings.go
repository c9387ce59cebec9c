package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"media-inspector/internal/mediatypes"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the settings schema version written by Save.
const CurrentVersion = 1

// MenuAction is what happens when a menu entry is activated.
type MenuAction string

const (
	// ActionNone does nothing.
	ActionNone MenuAction = "none"
	// ActionOpen opens the inspected file with its default application.
	ActionOpen MenuAction = "open"
	// ActionScript runs the script attached to the entry.
	ActionScript MenuAction = "script"
)

// SizeMethod selects how folder sizes are computed.
type SizeMethod string

const (
	// SizeNone skips size computation.
	SizeNone SizeMethod = "none"
	// SizeFast sums the sizes of the files visited within the limits.
	SizeFast SizeMethod = "fast"
	// SizeFull walks the whole tree ignoring the file limit.
	SizeFull SizeMethod = "full"
)

// Engine names accepted in the engine priority list.
const (
	EngineFFmpeg = "ffmpeg"
	EngineMP4    = "mp4"
)

// MenuItem is one line template of a menu.
type MenuItem struct {
	Image    string `yaml:"image,omitempty" json:"image,omitempty"`
	Template string `yaml:"template" json:"template"`
}

// FormatSettings holds the per-domain settings.
type FormatSettings struct {
	Enabled   bool       `yaml:"enabled" json:"enabled"`
	Templates []MenuItem `yaml:"templates" json:"templates"`
}

// FolderSettings extends FormatSettings with folder walking options.
type FolderSettings struct {
	FormatSettings `yaml:",inline"`
	BundleEnabled  bool       `yaml:"bundle_enabled" json:"bundleEnabled"`
	MaxFiles       int        `yaml:"max_files" json:"maxFiles"`
	MaxDepth       int        `yaml:"max_depth" json:"maxDepth"`
	SkipHidden     bool       `yaml:"skip_hidden" json:"skipHidden"`
	SizeMethod     SizeMethod `yaml:"size_method" json:"sizeMethod"`
}

// CustomFormat is a user-defined format matched by content type identifier.
type CustomFormat struct {
	Identifier mediatypes.Identifier `yaml:"identifier" json:"identifier"`
	Enabled    bool                  `yaml:"enabled" json:"enabled"`
	Templates  []MenuItem            `yaml:"templates" json:"templates"`
}

// Settings is the complete user configuration consumed per request.
type Settings struct {
	Version       int            `yaml:"version" json:"version"`
	Image         FormatSettings `yaml:"image" json:"image"`
	Video         FormatSettings `yaml:"video" json:"video"`
	Audio         FormatSettings `yaml:"audio" json:"audio"`
	PDF           FormatSettings `yaml:"pdf" json:"pdf"`
	Office        FormatSettings `yaml:"office" json:"office"`
	Model         FormatSettings `yaml:"model" json:"model"`
	Archive       FormatSettings `yaml:"archive" json:"archive"`
	Folder        FolderSettings `yaml:"folder" json:"folder"`
	Others        FormatSettings `yaml:"others" json:"others"`
	CustomFormats []CustomFormat `yaml:"custom_formats" json:"customFormats"`
	MenuAction    MenuAction     `yaml:"menu_action" json:"menuAction"`
	Engines       []string       `yaml:"engines" json:"engines"`
	SkipEmpty     bool           `yaml:"skip_empty" json:"skipEmpty"`
	InfoOnSubMenu bool           `yaml:"info_on_submenu" json:"infoOnSubMenu"`

	// ActionScript is the script run when MenuAction is script. It receives
	// the inspected path and the title of the activated entry.
	ActionScript string `yaml:"action_script,omitempty" json:"actionScript,omitempty"`
	// ScriptDir is where [[script:name]] entries look up relative names.
	ScriptDir string `yaml:"script_dir,omitempty" json:"scriptDir,omitempty"`
}

// Clone returns a deep copy that shares no slices with s.
func (s Settings) Clone() Settings {
	c := s
	c.Image.Templates = cloneItems(s.Image.Templates)
	c.Video.Templates = cloneItems(s.Video.Templates)
	c.Audio.Templates = cloneItems(s.Audio.Templates)
	c.PDF.Templates = cloneItems(s.PDF.Templates)
	c.Office.Templates = cloneItems(s.Office.Templates)
	c.Model.Templates = cloneItems(s.Model.Templates)
	c.Archive.Templates = cloneItems(s.Archive.Templates)
	c.Folder.Templates = cloneItems(s.Folder.Templates)
	c.Others.Templates = cloneItems(s.Others.Templates)
	if s.CustomFormats != nil {
		c.CustomFormats = make([]CustomFormat, len(s.CustomFormats))
		for i, f := range s.CustomFormats {
			f.Templates = cloneItems(f.Templates)
			c.CustomFormats[i] = f
		}
	}
	if s.Engines != nil {
		c.Engines = append([]string(nil), s.Engines...)
	}
	return c
}

func cloneItems(items []MenuItem) []MenuItem {
	if items == nil {
		return nil
	}
	return append([]MenuItem(nil), items...)
}

// Validate checks the values a hand-edited file could get wrong.
func (s Settings) Validate() error {
	switch s.MenuAction {
	case ActionNone, ActionOpen, ActionScript:
	default:
		return fmt.Errorf("invalid menu_action %q", s.MenuAction)
	}
	if s.MenuAction == ActionScript && s.ActionScript == "" {
		return fmt.Errorf("menu_action script needs an action_script")
	}
	switch s.Folder.SizeMethod {
	case SizeNone, SizeFast, SizeFull:
	default:
		return fmt.Errorf("invalid folder size_method %q", s.Folder.SizeMethod)
	}
	if s.Folder.MaxFiles < 0 || s.Folder.MaxDepth < 0 {
		return fmt.Errorf("folder limits must not be negative")
	}
	for _, e := range s.Engines {
		if e != EngineFFmpeg && e != EngineMP4 {
			return fmt.Errorf("unknown engine %q", e)
		}
	}
	for i, f := range s.CustomFormats {
		if f.Identifier == "" {
			return fmt.Errorf("custom format %d has no identifier", i)
		}
	}
	return nil
}

// Parse decodes YAML settings on top of the defaults, so a partial file
// only overrides what it names.
func Parse(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Marshal encodes settings as YAML.
func Marshal(s Settings) ([]byte, error) {
	s.Version = CurrentVersion
	return yaml.Marshal(s)
}

// LoadFromFile reads settings from a YAML file.
func LoadFromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	return Parse(data)
}

// SaveToFile writes settings as YAML, creating parent directories.
func SaveToFile(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
