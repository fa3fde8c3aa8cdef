package manifest

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// manifestSchema constrains a decoded treepie.toml document. Optional
// fields may be absent; fields that are present must be concrete and
// well-shaped. project.name is the only required field.
const manifestSchema = `
project: {
	name:         string & !=""
	version?:     string & =~"^[0-9]+[.][0-9]+[.][0-9]+"
	description?: string
	authors?: [...string]
}
source?: {
	dirs?: [...string & !=""]
	entry?: string
}
dependencies?: {
	[string]: {
		git?:  string & !=""
		ref?:  string
		path?: string & !=""
	}
}
image?: {
	output?:           string
	"include-source"?: bool
}
wrap?: {
	output?: string
	packages?: [...{
		import:   string & !=""
		include?: [...string & !=""]
		base?:    int & >=1000
	}]
}
`

// validateManifest unifies the raw TOML document with the schema and
// checks the result for concreteness. raw must use the document's own
// key spelling (e.g. "include-source"), which is why callers decode
// into a plain map rather than passing the typed Manifest.
func validateManifest(raw map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(manifestSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("manifest schema: %w", err)
	}

	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	return schema.Unify(doc).Validate(cue.Concrete(true))
}
