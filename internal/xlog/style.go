package xlog

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

//
// ---------- Colors ----------

const (
	ColorTeal40    = "#3ddbd9"
	ColorBlue60    = "#4589ff"
	ColorBlue40    = "#78a9ff"
	ColorBlue70    = "#0043ce"
	ColorBlueBase  = "#0f62fe"
	ColorRed60     = "#da1e28"
	ColorRedStrong = "#ff0000"
	ColorOrange40  = "#ff832b"
	ColorPurple50  = "#a56eff"
	ColorGray60    = "#8d8d8d"
	ColorGray10    = "#f4f4f4"
	ColorGray90    = "#262626"
)

//
// ---------- Styles ----------

// Styles defines the formatting of console log lines
type Styles struct {
	Out             io.Writer                 // output target
	Timestamp       lipgloss.Style            // timestamps
	Message         lipgloss.Style            // the message text
	Levels          map[string]string         // level name to background color
	Keys            map[string]lipgloss.Style // custom field keys
	DefaultKeyStyle lipgloss.Style            // fallback for unknown keys
}

// DefaultStylesByName returns a theme by name ("dark", "light")
func DefaultStylesByName(name string) *Styles {
	switch strings.ToLower(name) {
	case "light":
		return DefaultStylesLight()
	default:
		return DefaultStylesDark()
	}
}

func DefaultStylesDark() *Styles {
	return &Styles{
		Timestamp:       lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60)),
		Message:         lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray10)),
		Levels:          levelColors(ColorBlue60),
		DefaultKeyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue40)),
		Keys: map[string]lipgloss.Style{
			"phase": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTeal40)).Bold(true),
			"kind":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPurple50)),
			"error": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)),
		},
	}
}

func DefaultStylesLight() *Styles {
	return &Styles{
		Timestamp:       lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60)),
		Message:         lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray90)),
		Levels:          levelColors(ColorBlue70),
		DefaultKeyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlueBase)),
		Keys: map[string]lipgloss.Style{
			"phase": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue70)).Bold(true),
			"kind":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPurple50)),
			"error": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)),
		},
	}
}

func levelColors(info string) map[string]string {
	return map[string]string{
		"trace": ColorGray60,
		"debug": ColorTeal40,
		"info":  info,
		"warn":  ColorOrange40,
		"error": ColorRed60,
		"fatal": ColorRedStrong,
		"panic": ColorRedStrong,
	}
}

//
// ---------- Console Formatter ----------

// ConsoleWriterWithStyles builds a zerolog.ConsoleWriter with styles
func ConsoleWriterWithStyles(styles *Styles) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        styles.Out,
		TimeFormat: "15:04:05.000",

		FormatLevel: func(i any) string {
			lvl := strings.ToLower(fmt.Sprint(i))
			color, ok := styles.Levels[lvl]
			if !ok {
				color = ColorGray60
			}
			label := strings.ToUpper(lvl)
			if len(label) > 3 {
				label = label[:3]
			}
			return lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ffffff")).
				Background(lipgloss.Color(color)).
				Padding(0, 1).
				Render(label)
		},

		FormatTimestamp: func(i any) string {
			return styles.Timestamp.Render(fmt.Sprintf("[%s]", i))
		},

		FormatFieldName: func(i any) string {
			key := fmt.Sprint(i)
			style, ok := styles.Keys[key]
			if !ok {
				style = styles.DefaultKeyStyle
			}
			eq := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60))
			return style.Render(key) + eq.Render("=")
		},

		FormatMessage: func(i any) string {
			if i == nil {
				return ""
			}
			return styles.Message.Render(fmt.Sprint(i))
		},
	}
}
