package main

import (
	"bytes"
	"io"
	"strconv"

	"github.com/dimiro1/banner"
	"github.com/leofalp/mathchat/internal/config"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func printBanner(w io.Writer, cfg *config.Config, colors bool) {
	// Configured values are quoted as template literals so they print verbatim.
	tpl := `{{ .Title "mathchat" "" 0 }}` + "\n" +
		"Version: " + Version + "\n" +
		"Model: {{ " + strconv.Quote(cfg.Model) + " }} @ {{ " + strconv.Quote(cfg.BaseURL) + " }}\n" +
		"Ask a question, Ctrl+D to quit.\n\n"
	banner.Init(w, true, colors, bytes.NewBufferString(tpl))
}
