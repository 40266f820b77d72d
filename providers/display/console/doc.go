// Package console implements display.Sink for an interactive terminal using
// github.com/fatih/color.
package console
