package engine

import (
	"github.com/ChamsBouzaiene/dojo/internal/validate"
)

// Decompose turns one model response into the artifact the checks run
// against: files from write calls, fragments from edit calls, fenced
// blocks from the prose, and the names of every requested tool. The
// checks see everything the model wants to do before any of it runs.
func Decompose(resp LLMResponse) validate.Artifact {
	var art validate.Artifact

	for _, call := range resp.ToolCalls {
		art.Tools = append(art.Tools, call.Name)
		switch call.Name {
		case "write":
			path, _ := call.Args["path"].(string)
			content, _ := call.Args["content"].(string)
			if path != "" || content != "" {
				art.Files = append(art.Files, validate.File{Path: path, Content: content})
			}
		case "edit":
			// Only the replacement text is new material. It is checked
			// as a fragment here; the merged file is re-checked after
			// the edit lands.
			path, _ := call.Args["path"].(string)
			replacement, _ := call.Args["new_string"].(string)
			if path != "" || replacement != "" {
				art.Files = append(art.Files, validate.File{Path: path, Content: replacement, Partial: true})
			}
		}
	}

	for _, block := range validate.ExtractCodeBlocks(resp.Assistant.Content) {
		art.Snippets = append(art.Snippets, block.Body)
	}

	return art
}
