package render

type layoutMetrics struct {
	treeWidth      int
	separatorWidth int
	previewStart   int
	previewWidth   int
	showPreview    bool
	bodyTop        int
	bodyBottom     int // exclusive
}

const (
	minTreePanelWidth       = 12
	minPreviewPanelWidth    = 20
	minPreviewTerminalWidth = 40
	previewInnerPadding     = 1
	headerRows              = 1
	footerRows              = 1
)

// computeLayout splits the screen into the tree and preview panels. ratio
// is the tree's share of the width in percent.
func (r *Renderer) computeLayout(w, h, ratio int) layoutMetrics {
	if w < 0 {
		w = 0
	}
	metrics := layoutMetrics{
		bodyTop:    headerRows,
		bodyBottom: h - footerRows,
	}
	if metrics.bodyBottom < metrics.bodyTop {
		metrics.bodyBottom = metrics.bodyTop
	}

	metrics.treeWidth = w
	metrics.previewStart = w
	if w < minPreviewTerminalWidth {
		return metrics
	}

	tw := w * ratio / 100
	if tw < minTreePanelWidth {
		tw = minTreePanelWidth
	}
	pw := w - tw - 1
	if pw < minPreviewPanelWidth {
		return metrics
	}

	metrics.treeWidth = tw
	metrics.separatorWidth = 1
	metrics.previewStart = tw + 1
	metrics.previewWidth = pw
	metrics.showPreview = true
	return metrics
}

// bodyRows is how many list rows fit between the header and the footer.
func (m layoutMetrics) bodyRows() int {
	return m.bodyBottom - m.bodyTop
}
