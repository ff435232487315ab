package export

import (
	"fmt"
	"os"
	"strings"
)

// TrajectorySVG renders two state components of a solution against each
// other as an SVG polyline, useful for phase plots.
func TrajectorySVG(sol *Solution, xIdx, yIdx, width, height int, strokeColor string) (string, error) {
	if len(sol.States) < 2 {
		return "", fmt.Errorf("export: need at least 2 samples for an SVG plot")
	}
	dim := len(sol.States[0])
	if xIdx < 0 || xIdx >= dim || yIdx < 0 || yIdx >= dim {
		return "", fmt.Errorf("export: state index out of range (model has %d states)", dim)
	}

	// Find bounds
	minX, maxX := sol.States[0][xIdx], sol.States[0][xIdx]
	minY, maxY := sol.States[0][yIdx], sol.States[0][yIdx]
	for _, s := range sol.States {
		if s[xIdx] < minX {
			minX = s[xIdx]
		}
		if s[xIdx] > maxX {
			maxX = s[xIdx]
		}
		if s[yIdx] < minY {
			minY = s[yIdx]
		}
		if s[yIdx] > maxY {
			maxY = s[yIdx]
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, s := range sol.States {
		x := (s[xIdx] - minX) / rangeX * float64(width)
		y := float64(height) - (s[yIdx]-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String(), nil
}

func SVGFile(path string, sol *Solution, xIdx, yIdx int) error {
	svg, err := TrajectorySVG(sol, xIdx, yIdx, 640, 480, "#00ff00")
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(svg), 0644)
}
