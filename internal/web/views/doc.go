// Package views renders the HTML fragments returned to HTMX requests.
//
// Components are written in views.templ; views_templ.go is generated from
// it with `templ generate` and checked in.
package views
