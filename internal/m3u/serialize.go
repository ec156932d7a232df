package m3u

import (
	"strconv"
	"strings"

	"github.com/voyagen/m3uforge/internal/models"
)

// Serialize renders p as extended M3U text with "\n" line endings.
//
// Entries without Metadata get no #EXTINF line, so Deserialize drops them on
// the way back in. Deinterlace is written but never parsed.
func Serialize(p *models.Playlist) string {
	var sb strings.Builder

	sb.WriteString(models.HeaderTag)
	if p.URLTvg != nil {
		writeAttr(&sb, " ", "url-tvg", *p.URLTvg, "")
	}
	if p.Cache > 0 {
		writeAttr(&sb, " ", "cache", strconv.Itoa(p.Cache), "")
	}
	if p.Deinterlace != models.DeinterlaceNone {
		writeAttr(&sb, " ", "deinterlace", strconv.Itoa(int(p.Deinterlace)), "")
	}
	if p.Refresh > 0 {
		writeAttr(&sb, " ", "refresh", strconv.Itoa(p.Refresh), "")
	}
	sb.WriteByte('\n')

	for i := range p.Entries {
		writeEntry(&sb, &p.Entries[i])
	}
	return sb.String()
}

func writeEntry(sb *strings.Builder, e *models.Entry) {
	if md := e.Metadata; md != nil {
		sb.WriteString(models.InfoTag)
		sb.WriteString(strconv.Itoa(e.Duration))
		sb.WriteByte(' ')
		if md.Censored {
			sb.WriteString(censoredAttr + " ")
		}
		writeOptional(sb, keyTvgID, md.TvgID, " ")
		writeOptional(sb, keyTvgName, md.TvgName, " ")
		writeOptional(sb, keyTvgLogo, md.TvgLogo, " ")
		writeOptional(sb, keyGroupID, md.GroupID, " ")
		// The comma binds group-title to the title that follows.
		writeOptional(sb, keyGroupTitle, md.GroupTitle, ", ")
		sb.WriteString(e.Title)
		sb.WriteByte('\n')
	}

	if e.Grouping != nil {
		sb.WriteString(models.GroupingTag)
		sb.WriteString(*e.Grouping)
		sb.WriteByte('\n')
	}

	sb.WriteString(e.FilePath)
	sb.WriteByte('\n')
}

func writeOptional(sb *strings.Builder, key string, v *string, suffix string) {
	if v != nil {
		writeAttr(sb, "", key, *v, suffix)
	}
}

func writeAttr(sb *strings.Builder, prefix, key, value, suffix string) {
	sb.WriteString(prefix)
	sb.WriteString(key)
	sb.WriteString(`="`)
	sb.WriteString(value)
	sb.WriteByte('"')
	sb.WriteString(suffix)
}
