// Package ui prints colored terminal output for the CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	stepColor    = color.New(color.FgBlue, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgWhite)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	blueColor    = color.New(color.FgBlue)
	yellowColor  = color.New(color.FgYellow)
)

// center left-pads text to sit in the middle of width. Text wider than the
// field is returned as is.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return strings.Repeat(" ", (width-len(text))/2) + text
}

// Header prints a boxed section title.
func Header(text string) {
	line := strings.Repeat("═", headerWidth)
	headerColor.Println(line)
	headerColor.Println(center(text, headerWidth))
	headerColor.Println(line)
}

// Step prints a numbered progress step.
func Step(current, total int, text string) {
	stepColor.Printf("[%d/%d] ", current, total)
	fmt.Println(text)
}

// Success prints a success line.
func Success(text string) {
	successColor.Printf("✓ %s\n", text)
}

// Info prints a neutral line.
func Info(text string) {
	infoColor.Printf("  %s\n", text)
}

// Warning prints a warning line.
func Warning(text string) {
	warnColor.Printf("⚠ %s\n", text)
}

// Error prints an error line.
func Error(text string) {
	errorColor.Printf("✗ %s\n", text)
}

// BlueText prints the text in blue.
func BlueText(text string) {
	blueColor.Println(text)
}

// YellowText prints the text in yellow.
func YellowText(text string) {
	yellowColor.Println(text)
}
