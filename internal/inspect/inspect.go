// Package inspect extracts the metadata shown in the inspector panel:
// container format, pixel dimensions, EXIF tags and the generation prompt
// and workflow embedded in PNG text chunks.
package inspect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"sort"
	"strings"
	"time"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/five82/vitrine/internal/gallery"
)

// Tag is one EXIF entry.
type Tag struct {
	IFD   string
	Name  string
	Value string
}

// Info is everything the inspector knows about an asset.
type Info struct {
	Kind     Kind
	Width    int
	Height   int
	Exif     []Tag
	Prompt   string
	Workflow string
	// Text holds the remaining PNG text entries.
	Text map[string]string
	// Warnings lists metadata blocks that were present but unreadable.
	Warnings []string
}

// Keys holding generation parameters in PNG text chunks.
var (
	promptKeys   = []string{"prompt", "parameters", "Description"}
	workflowKeys = []string{"workflow"}
)

// Inspect reads metadata from asset bytes. Missing or damaged metadata
// blocks are not errors; only an unrecognised container is.
func Inspect(data []byte) (Info, error) {
	info := Info{Kind: Sniff(data)}
	cfg, _, cfgErr := image.DecodeConfig(bytes.NewReader(data))
	if cfgErr == nil {
		info.Width, info.Height = cfg.Width, cfg.Height
	}
	if info.Kind == KindUnknown && cfgErr != nil {
		return info, fmt.Errorf("unrecognised image data: %w", cfgErr)
	}

	tags, err := readExif(bytes.NewReader(data))
	if err != nil {
		info.Warnings = append(info.Warnings, "exif: "+err.Error())
	}
	info.Exif = tags

	if info.Kind == KindPNG {
		text, err := TextChunks(bytes.NewReader(data))
		if err != nil {
			info.Warnings = append(info.Warnings, "png text: "+err.Error())
		}
		info.Prompt = take(text, promptKeys)
		info.Workflow = take(text, workflowKeys)
		if len(text) > 0 {
			info.Text = text
		}
	}
	return info, nil
}

func take(text map[string]string, keys []string) string {
	for _, k := range keys {
		if v, ok := text[k]; ok {
			delete(text, k)
			return v
		}
	}
	return ""
}

func readExif(rs io.ReadSeeker) ([]Tag, error) {
	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		if isNoExif(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if t.TagName == "" || t.ChildIfdPath != "" {
			continue
		}
		out = append(out, Tag{IFD: t.IfdPath, Name: t.TagName, Value: strings.TrimSpace(t.Formatted)})
	}
	return out, nil
}

func isNoExif(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "no exif")
}

// maxWorkflowLines caps the pretty-printed workflow in the panel.
const maxWorkflowLines = 200

// Markdown renders the inspector panel for img.
func Markdown(img gallery.Image, info Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", img.Filename)

	b.WriteString("| | |\n|---|---|\n")
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "| %s | %s |\n", k, escapeCell(v))
		}
	}
	row("Path", img.Path)
	row("Folder", img.Subfolder)
	row("Format", formatName(img, info))
	if info.Width > 0 {
		row("Dimensions", fmt.Sprintf("%d × %d", info.Width, info.Height))
	}
	if t := img.ModifiedTime(); !t.IsZero() {
		row("Modified", t.Format(time.DateTime))
	}
	if img.HasEdit {
		row("Edits", "saved")
	}
	if img.Trashed {
		row("Trash", "yes")
	}
	if len(img.Tags) > 0 {
		row("Tags", strings.Join(img.Tags, ", "))
	}

	if info.Prompt != "" {
		fmt.Fprintf(&b, "\n## Prompt\n\n%s\n", fence(prettyJSON(info.Prompt)))
	}
	if info.Workflow != "" {
		fmt.Fprintf(&b, "\n## Workflow\n\n%s\n", fence(limitLines(prettyJSON(info.Workflow), maxWorkflowLines)))
	}
	if len(info.Text) > 0 {
		b.WriteString("\n## Text chunks\n\n")
		keys := make([]string, 0, len(info.Text))
		for k := range info.Text {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- **%s**: %s\n", k, oneLine(info.Text[k]))
		}
	}
	for _, w := range info.Warnings {
		fmt.Fprintf(&b, "\n> unreadable %s\n", w)
	}
	if len(info.Exif) > 0 {
		b.WriteString("\n## EXIF\n\n| Tag | Value |\n|---|---|\n")
		for _, t := range info.Exif {
			fmt.Fprintf(&b, "| %s | %s |\n", t.Name, escapeCell(oneLine(t.Value)))
		}
	}
	return b.String()
}

func formatName(img gallery.Image, info Info) string {
	if info.Kind != KindUnknown {
		return info.Kind.String()
	}
	return img.Format
}

func prettyJSON(s string) string {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return s
	}
	return string(out)
}

func fence(s string) string {
	lang := ""
	if strings.HasPrefix(strings.TrimSpace(s), "{") || strings.HasPrefix(strings.TrimSpace(s), "[") {
		lang = "json"
	}
	return "```" + lang + "\n" + strings.TrimRight(s, "\n") + "\n```"
}

func limitLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + fmt.Sprintf("\n… %d more lines", len(lines)-n)
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 120 {
		return string(r[:119]) + "…"
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
