package blocks

// BlockType identifies one kind of published content block
type BlockType string

const (
	BlockTypeHeading   BlockType = "heading"
	BlockTypeParagraph BlockType = "paragraph"
	BlockTypeBullet    BlockType = "bulleted_list_item"
	BlockTypeCheckbox  BlockType = "to_do"
)

// MaxTextLength is Notion's per-block rich text content limit.
const MaxTextLength = 2000

// Block is one typed unit of content handed to the document store.
// Level is set for headings (1-3), Checked for checkboxes.
type Block struct {
	Type    BlockType
	Level   int
	Text    string
	Checked bool
}

// Heading creates a heading block at the given level (1-3)
func Heading(level int, text string) Block {
	return Block{Type: BlockTypeHeading, Level: level, Text: text}
}

// Paragraph creates a paragraph block
func Paragraph(text string) Block {
	return Block{Type: BlockTypeParagraph, Text: text}
}

// Bullet creates a bulleted list item block
func Bullet(text string) Block {
	return Block{Type: BlockTypeBullet, Text: text}
}

// Checkbox creates a to-do block
func Checkbox(text string, checked bool) Block {
	return Block{Type: BlockTypeCheckbox, Text: text, Checked: checked}
}

// TruncateText caps s at MaxTextLength characters. Applied at the publish
// boundary; truncation is silent.
func TruncateText(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxTextLength {
		return s
	}
	return string(runes[:MaxTextLength])
}
