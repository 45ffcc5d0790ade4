package main

import (
	"fmt"
	"sort"
	"strings"
)

func mustColorizeText(s, color string) string {
	result, err := colorizeText(s, color)
	if err != nil {
		panic(err)
	}
	return result
}

// SGR parameters for the supported highlight colors.
var ansiColorMap = map[string]string{
	"dark-red": "31",
	"red":      "31;1",

	"dark-green": "32",
	"green":      "32;1",

	"dark-yellow": "33",
	"yellow":      "33;1",

	"dark-blue": "34",
	"blue":      "34;1",

	"dark-magenta": "35",
	"magenta":      "35;1",

	"dark-cyan": "36",
	"cyan":      "36;1",

	"reverse":   "7",
	"underline": "4",
}

func colorizeText(s, color string) (string, error) {
	switch color {
	case "", "white", "none":
		return s, nil
	default:
		escape, ok := ansiColorMap[color]
		if !ok {
			return "", fmt.Errorf("unsupported color: %s (want one of %s)", color, supportedColors())
		}
		return "\033[" + escape + "m" + s + "\033[0m", nil
	}
}

func supportedColors() string {
	names := make([]string, 0, len(ansiColorMap))
	for name := range ansiColorMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
