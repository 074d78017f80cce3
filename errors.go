/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"html"
	"log"
	"strings"
	"time"
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

// newPage renders a minimal error page linking back to the server root.
func newPage(title, body string) string {
	var page strings.Builder

	page.WriteString(`<!DOCTYPE html><html lang="en"><head><style>`)
	page.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}`)
	page.WriteString(`</style>`)
	fmt.Fprintf(&page, "<title>%s</title></head>", html.EscapeString(title))
	fmt.Fprintf(&page, `<body><a href="/">%s</a></body></html>`, html.EscapeString(body))

	return page.String()
}
