package session

import (
	"github.com/matnoble/mdeditor"
	"github.com/matnoble/mdeditor/internal/scroll"
)

// Inbound message types.
const (
	TypeEdit      = "edit"
	TypeScroll    = "scroll"
	TypeMetrics   = "metrics"
	TypeTheme     = "theme"
	TypeCustomCSS = "custom_css"
	TypeCopy      = "copy"
	TypeFormat    = "format"
	TypePolish    = "polish"
	TypeTypeset   = "typeset"
)

// Outbound message types.
const (
	TypePreview = "preview"
	TypePatch   = "patch"
	TypeStyle   = "style"
	TypeCopied  = "copied"
	TypeFlags   = "flags"
	TypeText    = "text"
	TypeNotice  = "notice"
)

// Inbound is any message the browser sends. Fields irrelevant to Type are
// left empty.
type Inbound struct {
	Type    string          `json:"type"`
	Text    string          `json:"text,omitempty"`
	Pane    string          `json:"pane,omitempty"`
	Editor  *scroll.Metrics `json:"editor,omitempty"`
	Preview *scroll.Metrics `json:"preview,omitempty"`
	Theme   string          `json:"theme,omitempty"`
	CSS     string          `json:"css,omitempty"`
	ID      string          `json:"id,omitempty"`
}

// PreviewMessage replaces the print container and restyles the pane.
type PreviewMessage struct {
	Type       string `json:"type"`
	HTML       string `json:"html"`
	Prose      string `json:"prose"`
	ThemeClass string `json:"themeClass"`
	Font       string `json:"font"`
	Theme      string `json:"theme"`
}

// PatchMessage moves one pane.
type PatchMessage struct {
	Type      string  `json:"type"`
	Pane      string  `json:"pane"`
	ScrollTop float64 `json:"scrollTop"`
}

// StyleMessage mirrors a change of the custom style node.
type StyleMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"` // created, updated or removed
	CSS    string `json:"css"`
}

// CopiedMessage sets the copied indicator; an empty ID clears it.
type CopiedMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// FlagsMessage reports the running transforms.
type FlagsMessage struct {
	Type string `json:"type"`
	mdeditor.Flags
}

// TextMessage replaces the editor content.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NoticeMessage shows a transient notice.
type NoticeMessage struct {
	Type string `json:"type"`
	mdeditor.Notice
}
