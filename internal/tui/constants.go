package tui

// Key binding constants for TUI navigation and interaction
const (
	KeyEnter    = "enter"
	KeyEsc      = "esc"
	KeyCtrlC    = "ctrl+c"
	KeyCtrlS    = "ctrl+s"
	KeyTab      = "tab"
	KeyShiftTab = "shift+tab"
	KeySpace    = " "
)

// UI element constants
const (
	CheckboxUnchecked = "[ ]"
	CheckboxChecked   = "[x]"
	Ellipsis          = "…"
	PlaceholderDelay  = "e.g., weather"
	PlaceholderNotes  = "comments"
)

// Notices shown on the status line.
const (
	NoticeLoading     = "Loading loads..."
	NoticeSaved       = "Saved."
	NoticeNoChanges   = "No changes."
	NoticeReadOnly    = "This view is read-only."
	NoticeRecomputed  = "Totals recomputed."
	NoticeRefreshing  = "Refreshing..."
	NoticeSaving      = "Saving..."
	NoticeEditingBusy = "Finish or cancel the current edit first."
	NoticePushLost    = "Live updates stopped; the table still refreshes on a timer."
)

// Scrolling behavior constants
const (
	// ScrollOffsetMargin is the minimum number of rows to keep between cursor and viewport edges
	ScrollOffsetMargin = 3
)

// Size defaults.
const (
	DefaultWidth      = 120
	DefaultHeight     = 30
	ColumnWidthStep   = 2
	chromeHeight      = 14
	minViewHeight     = 3
	delayCharLimit    = 40
	commentsCharLimit = 500
)
