// Package static embeds the front-end bundle served under /static. The
// production build of the site overwrites app.css and app.js in this
// directory before compiling; the checked-in files are the minimal bundle
// that keeps the sign-in forms working without it.
package static

import "embed"

// FS holds app.css and app.js.
//
//go:embed app.css app.js
var FS embed.FS
