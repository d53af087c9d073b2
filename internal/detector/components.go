package detector

import "container/list"

// component is a single connected region of the combined text/link mask,
// discovered by 4-connected flood fill over the heatmap grid (spec §4.C
// step 1). Grounded on the teacher's connectedComponents/performComponentBFS
// BFS-via-container/list shape, adapted from the teacher's single-heatmap
// DB postprocessing to CRAFT's two-heatmap (text, link) scheme: component
// membership is still a single OR'd mask, and no per-pixel text/link flag is
// stored here; buildSegmap re-reads the heatmap scores for its link-pixel
// suppression.
type component struct {
	pixels     []int // linear indices into the heatmap grid
	minX, minY int
	maxX, maxY int
	peakText   float32
}

// findComponents flood-fills combined (textScore>lowText OR linkScore>
// linkThreshold) into components, tracking each component's bounding box
// and peak text score for the area/textThreshold discard test in §4.C
// step 2.
func findComponents(combined []bool, textScore []float32, w, h int) []component {
	visited := make([]bool, len(combined))
	var comps []component

	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

	for start := range combined {
		if !combined[start] || visited[start] {
			continue
		}
		startX, startY := start%w, start/w
		c := component{minX: startX, minY: startY, maxX: startX, maxY: startY}

		q := list.New()
		q.PushBack(start)
		visited[start] = true

		for q.Len() > 0 {
			e := q.Front()
			q.Remove(e)
			idx, ok := e.Value.(int)
			if !ok {
				continue
			}
			c.pixels = append(c.pixels, idx)
			x, y := idx%w, idx/w
			if x < c.minX {
				c.minX = x
			}
			if x > c.maxX {
				c.maxX = x
			}
			if y < c.minY {
				c.minY = y
			}
			if y > c.maxY {
				c.maxY = y
			}
			if textScore[idx] > c.peakText {
				c.peakText = textScore[idx]
			}

			for _, d := range dirs {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				ni := ny*w + nx
				if combined[ni] && !visited[ni] {
					visited[ni] = true
					q.PushBack(ni)
				}
			}
		}
		comps = append(comps, c)
	}
	return comps
}

// buildSegmap materializes the component's binary mask over a ROI extended
// by niter pixels on each side (clamped to the [0,gridW)x[0,gridH) heatmap
// bounds), suppressing link-only pixels: a pixel that only passed the OR by
// way of its link score (and not its text score) is zeroed in segmap rather
// than carried forward, per spec §4.C step 3. This stops isolated link
// regions from bridging two real, separate characters. The ROI extension
// matches spec §4.C step 4's "Dilate segmap within a (niter)-extended ROI",
// giving dilateBinary room to grow the mask past the component's own
// bounding box instead of clipping growth at its edges.
func buildSegmap(c component, textScore []float32, gridW, gridH int, lowText float64, niter int) (segmap []bool, bw, bh, offsetX, offsetY int) {
	offsetX = c.minX - niter
	if offsetX < 0 {
		offsetX = 0
	}
	offsetY = c.minY - niter
	if offsetY < 0 {
		offsetY = 0
	}
	maxX := c.maxX + niter
	if maxX > gridW-1 {
		maxX = gridW - 1
	}
	maxY := c.maxY + niter
	if maxY > gridH-1 {
		maxY = gridH - 1
	}
	bw = maxX - offsetX + 1
	bh = maxY - offsetY + 1
	segmap = make([]bool, bw*bh)
	for _, idx := range c.pixels {
		if float64(textScore[idx]) <= lowText {
			continue
		}
		x, y := idx%gridW, idx/gridW
		lx, ly := x-offsetX, y-offsetY
		segmap[ly*bw+lx] = true
	}
	return segmap, bw, bh, offsetX, offsetY
}
