package tagger

import (
	"path"

	"github.com/src-d/enry/v2"
)

// Language names as reported by enry.
const (
	langGo         = "Go"
	langPython     = "Python"
	langJavaScript = "JavaScript"
	langTypeScript = "TypeScript"
	langTSX        = "TSX"
	langRust       = "Rust"
	langJava       = "Java"
	langKotlin     = "Kotlin"
)

// detectLanguage names the language of the file at name. Binary content is
// reported as unknown. Older linguist data files .tsx under TypeScript.
func detectLanguage(name string, content []byte) string {
	if enry.IsBinary(content) {
		return ""
	}
	lang := enry.GetLanguage(path.Base(name), content)
	if lang == langTypeScript && path.Ext(name) == ".tsx" {
		return langTSX
	}
	return lang
}
