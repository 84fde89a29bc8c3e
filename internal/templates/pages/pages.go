// Package pages renders the HTML shells of the marketing site and dashboard.
// Styling, animation and dashboard widgets live in the front-end bundle; these
// shells only provide the document, navigation and credential forms.
package pages

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"github.com/spaceyvirtualera/spacey/internal/templates/layouts"
)

// siteName is the product name shown in titles.
const siteName = "Spacey Virtual Era"

// bodyFunc writes the inside of <main>.
type bodyFunc func(ctx context.Context, w io.Writer) error

// page wraps body in the shared document layout.
func page(title string, body bodyFunc) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
				`<meta name="viewport" content="width=device-width, initial-scale=1">`+
				`<title>%s | %s</title><link rel="stylesheet" href="/static/app.css"></head>`+
				`<body class="antialiased text-white">`,
			templ.EscapeString(title), siteName,
		); err != nil {
			return err
		}
		if err := nav(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<main>`); err != nil {
			return err
		}
		if err := body(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main><script src="/static/app.js" defer></script></body></html>`)
		return err
	})
}

// nav renders the top navigation; links depend on whether a viewer is set.
func nav(ctx context.Context, w io.Writer) error {
	links := `<a href="/login">Sign in</a><a href="/signup">Get started</a>`
	if layouts.IsAuthenticated(ctx) {
		links = `<a href="/dashboard">Dashboard</a>` +
			`<form method="post" action="/api/auth/logout"><button type="submit">Sign out</button></form>`
	}
	_, err := fmt.Fprintf(w, `<nav data-active="%s"><a href="/">%s</a>%s</nav>`,
		templ.EscapeString(layouts.GetActivePath(ctx)), siteName, links)
	return err
}

// Landing is the marketing home page.
func Landing() templ.Component {
	return page("Home", func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w,
			`<section id="hero"><h1>Discover the future of artificial intelligence</h1>`+
				`<div id="scene"></div></section>`)
		return err
	})
}

// Login is the sign-in form. The front-end posts it as JSON to
// /api/auth/login and then navigates to data-return-to.
func Login() templ.Component {
	return page("Sign in", func(ctx context.Context, w io.Writer) error {
		returnTo := layouts.GetReturnTo(ctx)
		if returnTo == "" {
			returnTo = "/dashboard"
		}
		_, err := fmt.Fprintf(w,
			`<form id="login-form" method="post" action="/api/auth/login" data-return-to="%s">`+
				`<label>Email<input type="email" name="email" required></label>`+
				`<label>Password<input type="password" name="password" required></label>`+
				`<p class="form-error" role="alert"></p>`+
				`<button type="submit">Sign in</button></form>`+
				`<p>No account? <a href="/signup">Sign up</a></p>`,
			templ.EscapeString(returnTo),
		)
		return err
	})
}

// Signup is the registration form.
func Signup() templ.Component {
	return page("Sign up", func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w,
			`<form id="signup-form" method="post" action="/api/auth/signup" data-return-to="/login">`+
				`<label>Name<input type="text" name="name" required></label>`+
				`<label>Email<input type="email" name="email" required></label>`+
				`<label>Password<input type="password" name="password" minlength="8" required></label>`+
				`<p class="form-error" role="alert"></p>`+
				`<button type="submit">Create account</button></form>`+
				`<p>Already registered? <a href="/login">Sign in</a></p>`)
		return err
	})
}

// Dashboard is the signed-in landing page.
func Dashboard() templ.Component {
	return page("Dashboard", func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<h1>Welcome back, %s</h1><p>%s</p><div id="dashboard-widgets"></div>`,
			templ.EscapeString(layouts.GetUserName(ctx)),
			templ.EscapeString(layouts.GetUserEmail(ctx)),
		)
		return err
	})
}

// Account renders the profile and settings shells, which share one layout.
func Account(title string) templ.Component {
	return page(title, func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<h1>%s</h1><dl><dt>Name</dt><dd>%s</dd><dt>Email</dt><dd>%s</dd></dl>`,
			templ.EscapeString(title),
			templ.EscapeString(layouts.GetUserName(ctx)),
			templ.EscapeString(layouts.GetUserEmail(ctx)),
		)
		return err
	})
}

// ErrorPage renders an HTTP error for browser requests.
func ErrorPage(code int, message string) templ.Component {
	return page(fmt.Sprintf("Error %d", code), func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<h1>%d</h1><p>%s</p><a href="/">Back home</a>`,
			code, templ.EscapeString(message))
		return err
	})
}

// SafeReturnTo validates a ?from= value: only same-site absolute paths are
// accepted, anything else yields "".
func SafeReturnTo(from string) string {
	if from == "" || from[0] != '/' || (len(from) > 1 && (from[1] == '/' || from[1] == '\\')) {
		return ""
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return from
}
