package ui

import "time"

// Screen regions.
const (
	// headerRows is the status bar plus the command bar.
	headerRows = 2
	// footerRows is the short help line.
	footerRows = 1

	// inspectorWidth is the right-hand panel of the zoom view.
	inspectorWidth = 44
	// LayoutCompactWidth is the threshold below which the zoom view drops the inspector.
	LayoutCompactWidth = 100

	// overscanRows are rows below the viewport reported visible so thumbnails
	// load just before they scroll in.
	overscanRows = 1
)

// Timing constants.
const (
	// frameInterval paces enter/exit animation frames.
	frameInterval = 33 * time.Millisecond

	// doubleClick is the window in which a second click opens an image.
	doubleClick = 400 * time.Millisecond

	assetTimeout  = 30 * time.Second
	editTimeout   = 10 * time.Second
	bulkTimeout   = 60 * time.Second
	reloadTimeout = 15 * time.Second
)

// Limits.
const (
	// assetBudget is how many decoded full-size assets stay in memory.
	assetBudget = 8
	// assetMaxDim bounds decoded assets; previews are recomputed from them
	// on every adjustment.
	assetMaxDim = 768
	// logOverlayLines is how much of the log file the overlay reads.
	logOverlayLines = 2000

	adjustStep = 0.05
	speedStep  = 0.25
	panStep    = 4.0
	keyZoom    = 2
)
