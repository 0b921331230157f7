// Package assets embeds the minimal static front-end stackium serves
// under GET /<path> in web/gui mode. The full graphical front-end
// (memory columns, pointer graphs) is an external collaborator per
// spec §1 and is out of scope; this bundle is a thin placeholder page
// sufficient to exercise the HTTP asset route and its MIME-by-
// extension behavior.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed static
var bundle embed.FS

// FS returns the embedded static asset tree rooted at "static", ready
// to back an http.FileServer-style handler.
func FS() fs.FS {
	sub, err := fs.Sub(bundle, "static")
	if err != nil {
		panic(err) // the "static" directory is embedded at build time; this cannot fail at runtime
	}
	return sub
}
