package settings

func items(templates ...string) []MenuItem {
	out := make([]MenuItem, 0, len(templates))
	for _, t := range templates {
		out = append(out, MenuItem{Template: t})
	}
	return out
}

// Default returns the settings used when no file has been saved yet.
func Default() Settings {
	return Settings{
		Version: CurrentVersion,
		Image: FormatSettings{
			Enabled: true,
			Templates: items(
				"[[size]], [[color-depth]]",
				"[[ratio]], [[resolution]]",
				"[[color-space]], [[color-depth]]",
				"[[dpi]]",
				"[[print:cm]]",
				"[[print:cm:300]]",
				"-",
				"[[file-size]]",
				"-",
				"[[open]]",
				"-",
				"[[about]]",
			),
		},
		Video: FormatSettings{
			Enabled: true,
			Templates: items(
				"[[size]], [[duration]], [[fps]] ([[languages]])",
				"[[ratio]], [[resolution]]",
				"[[bitrate]], [[codec]]",
				"[[frames]]",
				"[[title]]",
				"[[video]]",
				"[[audio]]",
				"[[subtitles]]",
				"-",
				"[[file-size]]",
				"-",
				"[[open]]",
				"-",
				"[[about]]",
			),
		},
		Audio: FormatSettings{
			Enabled: true,
			Templates: items(
				"[[duration]] ([[seconds]]) [[language]]",
				"[[bitrate]], [[codec]]",
				"[[title]]",
				"([[engine]])",
				"-",
				"[[file-size]]",
				"-",
				"[[open]]",
				"-",
				"[[about]]",
			),
		},
		PDF: FormatSettings{
			Enabled: true,
			Templates: items(
				"[[pages]] [[security]]",
				"-",
				"[[title]]",
				"Author: [[author]]",
				"Creator: [[creator]]",
				"Application: [[producer]]",
				"[[version]], [[security]]",
				"-",
				"[[file-size]]",
				"-",
				"[[open]]",
				"-",
				"[[about]]",
			),
		},
		Office: FormatSettings{
			Enabled: true,
			Templates: items(
				"[[title]], [[pages]]",
				"subject: [[subject]]",
				"[[author]]",
				"[[pages]]",
				"[[words]], [[characters]]",
				"[[keywords]]",
				"([[application]])",
				"-",
				"[[file-size]]",
				"-",
				"[[open]]",
				"-",
				"[[about]]",
			),
		},
		Model: FormatSettings{
			Enabled: true,
			Templates: items(
				"[[mesh]], [[vertex]]",
				"[[normal]], [[texture-coords]]",
				"[[colors]]",
				"-",
				"[[file-size]]",
				"-",
				"[[open]]",
				"-",
				"[[about]]",
			),
		},
		Archive: FormatSettings{
			Enabled: true,
			Templates: items(
				"[[compression-summary]], [[n-files]]",
				"[[files]]",
				"-",
				"[[open]]",
				"-",
				"[[about]]",
			),
		},
		Folder: FolderSettings{
			FormatSettings: FormatSettings{
				Enabled: true,
				Templates: items(
					"[[file-name]]",
					"[[files]]",
					"-",
					"[[n-files-all]]",
					"[[file-size]]",
					"-",
					"[[about]]",
				),
			},
			BundleEnabled: true,
			MaxFiles:      100,
			MaxDepth:      0,
			SkipHidden:    true,
			SizeMethod:    SizeFast,
		},
		Others: FormatSettings{
			Enabled: false,
			Templates: items(
				"[[file-name]]",
				"[[open]]",
				"-",
				"[[file-size]]",
				"-",
				"[[about]]",
			),
		},
		CustomFormats: []CustomFormat{},
		MenuAction:    ActionOpen,
		Engines:       []string{EngineMP4, EngineFFmpeg},
		SkipEmpty:     true,
		InfoOnSubMenu: true,
	}
}
