package formflow

import (
	"io/fs"

	"github.com/goliatone/go-formflow/pkg/renderers/vanilla"
	"github.com/goliatone/go-formflow/pkg/runtime"
)

// EmbeddedTemplates exposes the built-in vanilla renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// RuntimeAssetsFS exposes the browser runtime and base stylesheet so Go
// applications can serve them without a build step.
//
// Typical mount:
//
//	mux.Handle("/formflow/assets/",
//	  http.StripPrefix("/formflow/assets/",
//	    http.FileServerFS(formflow.RuntimeAssetsFS()),
//	  ),
//	)
//
// runtime.NewHandler serves the same files minified.
func RuntimeAssetsFS() fs.FS {
	return runtime.FS()
}
