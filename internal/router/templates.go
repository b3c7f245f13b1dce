package router

import (
	"html/template"
	"log"
	"path/filepath"

	"github.com/gin-contrib/multitemplate"
)

// LoadTemplates registers each view together with the shared layouts, keyed
// by the view's path relative to views/.
func LoadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(filepath.Join(templatesDir, "layouts", "*.html"))
	if err != nil {
		panic(err)
	}
	views, err := filepath.Glob(filepath.Join(templatesDir, "views", "*.html"))
	if err != nil {
		panic(err)
	}
	if len(views) == 0 {
		log.Printf("No templates found under %s, HTML views are disabled", templatesDir)
	}

	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
	}

	for _, view := range views {
		files := append(append([]string{}, layouts...), view)
		r.AddFromFilesFuncs(filepath.Base(view), funcMap, files...)
	}
	return r
}
