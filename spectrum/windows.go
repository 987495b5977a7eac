package spectrum

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// WindowFunction builds an analysis window of the given size.
type WindowFunction func(int) []float64

var WindowFunctions = map[string]WindowFunction{
	"hamming":   HammingWindow,
	"vonhann":   VonHannWindow,
	"rectangle": RectangleWindow,
}

// WindowNames lists the known windows, sorted.
func WindowNames() []string {
	names := make([]string, 0, len(WindowFunctions))
	for name := range WindowFunctions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func WindowNamesString() string {
	return strings.Join(WindowNames(), ", ")
}

// ParseWindow looks a window up by name.
func ParseWindow(name string) (WindowFunction, error) {
	w, ok := WindowFunctions[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown window %q, must be one of: %s", name, WindowNamesString())
	}
	return w, nil
}

// helper for hamming/hann windows
func ingWindow(size int, a float64) []float64 {
	b := 1 - a
	window := make([]float64, size)
	if size == 1 {
		window[0] = 1
		return window
	}

	for i := 0; i < size; i++ {
		window[i] = a - b*math.Cos(2*math.Pi*float64(i)/float64(size-1))
	}

	return window
}

func HammingWindow(size int) []float64 {
	return ingWindow(size, 0.54)
}

// VonHannWindow is the standard hann window with b = 1 - a.
func VonHannWindow(size int) []float64 {
	return ingWindow(size, 0.5)
}

func RectangleWindow(size int) []float64 {
	window := make([]float64, size)
	for i := range window {
		window[i] = 1.0
	}
	return window
}
