package handler

import (
	"bytes"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/models"
	"html/template"
	"net/url"

	"github.com/samber/lo"
)

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE HTML>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Error response</title>
</head>
<body>
<h1>Error response</h1>
<p>Error code: {{.Code}}</p>
<p>Message: {{.Message}}.</p>
</body>
</html>
`))

var listingPage = template.Must(template.New("listing").Parse(`<!DOCTYPE HTML>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Directory listing for {{.Path}}</title>
</head>
<body>
<h1>Directory listing for {{.Path}}</h1>
<hr>
<ul>
{{range .Links}}<li><a href="{{.Href}}">{{.Name}}</a></li>
{{end}}</ul>
<hr>
</body>
</html>
`))

type listingLink struct {
	Href string
	Name string
}

func renderError(code int, message string) []byte {
	var buf bytes.Buffer
	data := struct {
		Code    int
		Message string
	}{code, message}
	if err := errorPage.Execute(&buf, data); err != nil {
		return []byte(message)
	}
	return buf.Bytes()
}

func renderListing(displayPath string, entries []models.DirEntry) ([]byte, error) {
	links := lo.Map(entries, func(e models.DirEntry, _ int) listingLink {
		name, href := e.Name, e.Name
		if e.IsDir {
			name += "/"
			href += "/"
		}
		if e.IsSymlink {
			name = e.Name + "@"
		}
		return listingLink{
			Href: (&url.URL{Path: href}).String(),
			Name: name,
		}
	})

	var buf bytes.Buffer
	data := struct {
		Path  string
		Links []listingLink
	}{displayPath, links}
	if err := listingPage.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
