package ui

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which list details are hidden.
	LayoutCompactWidth = 80

	// LayoutWideWidth is the minimum width to show descriptions beside names.
	LayoutWideWidth = 120
)

// Chrome heights: header, banner and footer lines.
const (
	headerLines = 1
	bannerLines = 1
	footerLines = 1
)
