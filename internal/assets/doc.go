// Package assets provides the stylesheets, page templates, browser script and
// bundled default document of the editor.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from the go:embed filesystem
//	    ├── FilesystemLoader  - loads from a directory on disk
//	    └── AssetResolver     - custom directory first, embedded fallback
//
// A custom directory may override any single asset, for example a tweaked
// themes.css, while the rest keeps coming from the binary.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   ├── base.css       # layout and utility rules
//	│   ├── math.css       # math notation
//	│   └── themes.css     # theme palettes
//	└── templates/
//	    ├── editor.html    # live editor page
//	    └── export.html    # exported document shell
//
// The browser script under static/ and the default document are always
// embedded.
//
// # Security
//
// Asset names are validated against path traversal. FilesystemLoader resolves
// symlinks and verifies paths stay within basePath.
package assets
