package main

import (
	"fmt"

	"github.com/muesli/termenv"
)

// printBanner writes the ASCII banner with a teal ramp.
func printBanner() {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _   _                        _  __ _               ", "#5eead4"},
		{"| |_| |__  _ __ ___  __ _  __| |/ _| | _____      __", "#2dd4bf"},
		{"| __| '_ \\| '__/ _ \\/ _` |/ _` | |_| |/ _ \\ \\ /\\ / /", "#14b8a6"},
		{"| |_| | | | | |  __/ (_| | (_| |  _| | (_) \\ V  V / ", "#0d9488"},
		{" \\__|_| |_|_|  \\___|\\__,_|\\__,_|_| |_|\\___/ \\_/\\_/  ", "#0f766e"},
	}

	fmt.Println()
	for _, line := range lines {
		fmt.Println(termenv.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Println()
}
