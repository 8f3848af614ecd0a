package preview

import (
	"fmt"
	"hash/fnv"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

var avatarPalette = []string{
	"#877EFF", "#FF5A5A", "#FFB620", "#24A148", "#0095F6", "#C13584", "#5C5C7B", "#FF8A3D",
}

// Initials returns up to two uppercase initials of name
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		if r == utf8.RuneError || !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	return b.String()
}

// InitialsAvatar renders a square SVG with the initials of name on a color
// picked from the name, so the same name always gets the same avatar
func InitialsAvatar(name string, size int) []byte {
	if size <= 0 {
		size = 128
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	color := avatarPalette[h.Sum32()%uint32(len(avatarPalette))]

	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%[1]d" height="%[1]d" viewBox="0 0 %[1]d %[1]d">`+
		`<rect width="100%%" height="100%%" fill="%[2]s"/>`+
		`<text x="50%%" y="50%%" dy=".35em" text-anchor="middle" fill="#FFFFFF" font-family="Inter, Helvetica, Arial, sans-serif" font-size="%[3]d" font-weight="600">%[4]s</text>`+
		`</svg>`,
		size, color, size*2/5, html.EscapeString(Initials(name)))
	return []byte(svg)
}
