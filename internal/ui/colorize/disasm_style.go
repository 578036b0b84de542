package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// DisasmDark colours mnemonics white, registers teal, numbers pink and
// labels gold on a dark background.
var DisasmDark = styles.Register(chroma.MustNewStyle("disasm-dark", chroma.StyleEntries{
	chroma.Text:       "#FFFFFF",
	chroma.Background: "bg:#1e1e1e",
	chroma.Comment:    "#8A8A93",

	chroma.Keyword:       "#FFFFFF",
	chroma.KeywordPseudo: "#B8B8C0",
	chroma.Name:          "#7C9C9D",
	chroma.NameBuiltin:   "#7C9C9D",
	chroma.NameVariable:  "#7C9C9D",
	chroma.NameFunction:  "#FFFFFF",
	chroma.NameLabel:     "#FFD700",
	chroma.NameAttribute: "#FFFFFF",

	chroma.LiteralNumber: "#FF5F87",

	chroma.Operator:    "#FFFFFF",
	chroma.Punctuation: "#FFFFFF",
	chroma.String:      "#EACD53",
}))
