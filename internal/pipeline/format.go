package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/qduc/easyocr-go/internal/geom"
	"github.com/qduc/easyocr-go/internal/ocr"
)

// FormatResults renders a Result in the requested format ("text", "csv", or
// anything else falls back to "json"), matching the three output modes the
// teacher's batch CLI supports.
func (r *Result) FormatResults(format string) (string, error) {
	switch format {
	case "text":
		return formatText(r.Images), nil
	case "csv":
		return formatCSV(r.Images)
	default:
		return formatJSON(r.Images)
	}
}

func formatJSON(images []ImageResult) (string, error) {
	type jsonImage struct {
		File    string       `json:"file"`
		Results []ocr.Result `json:"results,omitempty"`
		Error   string       `json:"error,omitempty"`
	}
	out := make([]jsonImage, len(images))
	for i, img := range images {
		out[i] = jsonImage{File: img.Path, Results: img.Results, Error: img.ErrMsg}
	}
	bts, err := json.MarshalIndent(struct {
		Images []jsonImage `json:"images"`
	}{out}, "", "  ")
	return string(bts), err
}

func formatCSV(images []ImageResult) (string, error) {
	var rows [][]string
	rows = append(rows, []string{"file", "region_index", "text", "confidence", "x", "y", "width", "height"})

	for _, img := range images {
		if img.Err != nil || len(img.Results) == 0 {
			rows = append(rows, []string{img.Path, "0", "", "0", "0", "0", "0", "0"})
			continue
		}
		for j, res := range img.Results {
			box := geom.BoundingBox(res.Box)
			rows = append(rows, []string{
				img.Path,
				strconv.Itoa(j),
				res.Text,
				fmt.Sprintf("%.3f", res.Confidence),
				fmt.Sprintf("%.1f", box.MinX),
				fmt.Sprintf("%.1f", box.MinY),
				fmt.Sprintf("%.1f", box.Width()),
				fmt.Sprintf("%.1f", box.Height()),
			})
		}
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return sb.String(), w.Error()
}

func formatText(images []ImageResult) string {
	var sb strings.Builder
	for i, img := range images {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("# %s\n", img.Path))
		if img.Err != nil {
			sb.WriteString(fmt.Sprintf("error: %s\n", img.ErrMsg))
			continue
		}
		sorted := append([]ocr.Result(nil), img.Results...)
		sort.SliceStable(sorted, func(a, b int) bool {
			ba := geom.BoundingBox(sorted[a].Box)
			bb := geom.BoundingBox(sorted[b].Box)
			if ba.MinY != bb.MinY {
				return ba.MinY < bb.MinY
			}
			return ba.MinX < bb.MinX
		})
		for _, r := range sorted {
			sb.WriteString(r.Text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
