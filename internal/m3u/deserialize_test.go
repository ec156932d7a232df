package m3u

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/voyagen/m3uforge/internal/models"
)

func strPtr(s string) *string { return &s }

func TestDeserializeChannelScenario(t *testing.T) {
	Convey("Given a single-channel IPTV playlist", t, func() {
		lines := []string{
			`#EXTM3U url-tvg="https://x/epg.xml" cache="1000" refresh="3600"`,
			`#EXTINF:-1 tvg-id="1" tvg-name="ChA" group-title="DE", Channel A`,
			`#EXTGRP:DE`,
			`https://x/a.m3u8`,
		}

		p, err := Deserialize(lines)
		So(err, ShouldBeNil)

		Convey("The header attributes are read", func() {
			So(p.URLTvg, ShouldNotBeNil)
			So(*p.URLTvg, ShouldEqual, "https://x/epg.xml")
			So(p.Cache, ShouldEqual, 1000)
			So(p.Refresh, ShouldEqual, 3600)
			So(p.Deinterlace, ShouldEqual, models.DeinterlaceNone)
		})

		Convey("Exactly one entry is built from the three lines", func() {
			So(p.Entries, ShouldHaveLength, 1)
			e := p.Entries[0]
			So(e.Duration, ShouldEqual, -1)
			So(e.Title, ShouldEqual, "Channel A")
			So(e.FilePath, ShouldEqual, "https://x/a.m3u8")
			So(e.Grouping, ShouldResemble, strPtr("DE"))
			So(e.Metadata, ShouldResemble, &models.Metadata{
				TvgID:      strPtr("1"),
				TvgName:    strPtr("ChA"),
				GroupTitle: strPtr("DE"),
			})
		})
	})
}

func TestDeserializeHeaderValidation(t *testing.T) {
	Convey("Header validation", t, func() {
		Convey("Empty input is rejected", func() {
			p, err := Deserialize(nil)
			So(p, ShouldBeNil)
			So(errors.Is(err, ErrFormat), ShouldBeTrue)

			var fe *FormatError
			So(errors.As(err, &fe), ShouldBeTrue)
			So(fe.Header, ShouldEqual, "")
		})

		Convey("Input made of blank lines only is rejected", func() {
			p, err := DeserializeBytes([]byte("\r\n\n\r\n"))
			So(p, ShouldBeNil)
			So(errors.Is(err, ErrFormat), ShouldBeTrue)
		})

		Convey("A first line without #EXTM3U is rejected", func() {
			p, err := Deserialize([]string{`#EXTINF:-1,Title`, `#EXTM3U`, `http://a`})
			So(p, ShouldBeNil)
			So(errors.Is(err, ErrFormat), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "not a valid M3U file")
		})

		Convey("The header token is matched in any case", func() {
			for _, h := range []string{"#EXTM3U", "#extm3u", "#ExtM3u tvg-shift=2"} {
				p, err := Deserialize([]string{h})
				So(err, ShouldBeNil)
				So(p.Entries, ShouldBeEmpty)
			}
		})
	})
}

func TestDeserializeHeaderAttributes(t *testing.T) {
	Convey("Header attributes", t, func() {
		Convey("are read in any order and with any key case", func() {
			p, err := Deserialize([]string{`#EXTM3U REFRESH="60"  Cache="5" URL-TVG="http://e/g.xml"`})
			So(err, ShouldBeNil)
			So(p.Refresh, ShouldEqual, 60)
			So(p.Cache, ShouldEqual, 5)
			So(*p.URLTvg, ShouldEqual, "http://e/g.xml")
		})

		Convey("ignore unparsable numbers and unknown keys", func() {
			p, err := Deserialize([]string{`#EXTM3U refresh="soon" cache="" x-tvg-url="ignored"`})
			So(err, ShouldBeNil)
			So(p.Refresh, ShouldEqual, 0)
			So(p.Cache, ShouldEqual, 0)
			So(p.URLTvg, ShouldBeNil)
		})

		Convey("ignore numbers outside the 32-bit range", func() {
			p, err := Deserialize([]string{`#EXTM3U cache="3000000000" refresh="2147483647"`})
			So(err, ShouldBeNil)
			So(p.Cache, ShouldEqual, 0)
			So(p.Refresh, ShouldEqual, 2147483647)
		})

		Convey("accept unquoted values", func() {
			p, err := Deserialize([]string{`#EXTM3U cache=250`})
			So(err, ShouldBeNil)
			So(p.Cache, ShouldEqual, 250)
		})

		Convey("never read deinterlace", func() {
			p, err := Deserialize([]string{`#EXTM3U deinterlace="2"`})
			So(err, ShouldBeNil)
			So(p.Deinterlace, ShouldEqual, models.DeinterlaceNone)
		})
	})
}

func TestDeserializeEntries(t *testing.T) {
	Convey("Entry recognition", t, func() {
		Convey("An #EXTGRP line without a pending entry is ignored", func() {
			p, err := Deserialize([]string{"#EXTM3U", "#EXTGRP:News", "#EXTINF:10,A", "a.mp3"})
			So(err, ShouldBeNil)
			So(p.Entries, ShouldHaveLength, 1)
			So(p.Entries[0].Grouping, ShouldBeNil)
		})

		Convey("A path line without a pending entry is ignored", func() {
			p, err := Deserialize([]string{"#EXTM3U", "orphan.mp3", "#EXTINF:10,A", "a.mp3", "b.mp3"})
			So(err, ShouldBeNil)
			So(p.Entries, ShouldHaveLength, 1)
			So(p.Entries[0].FilePath, ShouldEqual, "a.mp3")
		})

		Convey("An unfinished entry is replaced by the next #EXTINF", func() {
			p, err := Deserialize([]string{"#EXTM3U", "#EXTINF:1,First", "#EXTGRP:G", "#EXTINF:2,Second", "second.mp3"})
			So(err, ShouldBeNil)
			So(p.Entries, ShouldHaveLength, 1)
			So(p.Entries[0].Title, ShouldEqual, "Second")
			So(p.Entries[0].Grouping, ShouldBeNil)
		})

		Convey("A trailing #EXTINF without a path is dropped", func() {
			p, err := Deserialize([]string{"#EXTM3U", "#EXTINF:1,A", "a.mp3", "#EXTINF:2,B"})
			So(err, ShouldBeNil)
			So(p.Entries, ShouldHaveLength, 1)
		})

		Convey("Other comment lines are skipped", func() {
			p, err := Deserialize([]string{
				"#EXTM3U",
				"#EXTINF:-1,Radio",
				"#EXTVLCOPT:http-user-agent=foo",
				"# just a note",
				"  http://radio/stream  ",
			})
			So(err, ShouldBeNil)
			So(p.Entries, ShouldHaveLength, 1)
			So(p.Entries[0].FilePath, ShouldEqual, "http://radio/stream")
		})

		Convey("Directives are matched in any case and grouping keeps its spaces", func() {
			p, err := Deserialize([]string{"#EXTM3U", "#extinf:5,A", "#extgrp: Sports ", "a.ts"})
			So(err, ShouldBeNil)
			So(p.Entries, ShouldHaveLength, 1)
			So(*p.Entries[0].Grouping, ShouldEqual, " Sports ")
		})

		Convey("Entry order is preserved", func() {
			p, err := Deserialize([]string{"#EXTM3U", "#EXTINF:1,A", "a", "#EXTINF:2,B", "b", "#EXTINF:3,C", "c"})
			So(err, ShouldBeNil)
			So(p.Entries, ShouldHaveLength, 3)
			So(p.Entries[0].Title, ShouldEqual, "A")
			So(p.Entries[1].Title, ShouldEqual, "B")
			So(p.Entries[2].Title, ShouldEqual, "C")
		})
	})
}

func TestDeserializeInfoPayload(t *testing.T) {
	Convey("#EXTINF payload parsing", t, func() {
		parse := func(info string) models.Entry {
			p, err := Deserialize([]string{"#EXTM3U", info, "path"})
			So(err, ShouldBeNil)
			So(p.Entries, ShouldHaveLength, 1)
			return p.Entries[0]
		}

		Convey("An unparsable duration becomes 0, not -1", func() {
			So(parse("#EXTINF:abc,Title").Duration, ShouldEqual, 0)
			So(parse("#EXTINF:,Title").Duration, ShouldEqual, 0)
			So(parse("#EXTINF: 5,Title").Duration, ShouldEqual, 0)
		})

		Convey("A duration outside the 32-bit range becomes 0", func() {
			So(parse("#EXTINF:3000000000,Title").Duration, ShouldEqual, 0)
			So(parse("#EXTINF:-2147483648,Title").Duration, ShouldEqual, -2147483648)
		})

		Convey("The duration is the first token", func() {
			So(parse("#EXTINF:123,Title").Duration, ShouldEqual, 123)
			So(parse(`#EXTINF:-1 tvg-id="x",Title`).Duration, ShouldEqual, -1)
		})

		Convey("The title follows the last comma and is trimmed", func() {
			So(parse(`#EXTINF:-1 group-title="A, B", Artist - Song `).Title, ShouldEqual, "Artist - Song")
			So(parse("#EXTINF:-1,Hello, World").Title, ShouldEqual, "World")
		})

		Convey("Without a comma the title is empty", func() {
			So(parse(`#EXTINF:-1 tvg-id="1" Channel`).Title, ShouldEqual, "")
		})

		Convey("Censored is detected anywhere on the line", func() {
			So(parse(`#EXTINF:-1 censored="1",Late`).Metadata.Censored, ShouldBeTrue)
			So(parse(`#EXTINF:-1 censored="0",Early`).Metadata.Censored, ShouldBeFalse)
		})

		Convey("Metadata is always attached, with absent attributes left nil", func() {
			md := parse("#EXTINF:10,Plain").Metadata
			So(md, ShouldResemble, &models.Metadata{})
		})

		Convey("All five quoted attributes are extracted", func() {
			md := parse(`#EXTINF:-1 tvg-id="id" tvg-name="name" tvg-logo="http://l/o.png" group_id="7" group-title="Movies",Film`).Metadata
			So(*md.TvgID, ShouldEqual, "id")
			So(*md.TvgName, ShouldEqual, "name")
			So(*md.TvgLogo, ShouldEqual, "http://l/o.png")
			So(*md.GroupID, ShouldEqual, "7")
			So(*md.GroupTitle, ShouldEqual, "Movies")
		})

		Convey("A key without a quote pair is left absent", func() {
			md := parse(`#EXTINF:-1 tvg-id=1,Broken`).Metadata
			So(md.TvgID, ShouldBeNil)

			md = parse(`#EXTINF:-1 tvg-logo="http://half,Broken`).Metadata
			So(md.TvgLogo, ShouldBeNil)
		})

		Convey("The first occurrence of a key wins, even inside another value", func() {
			md := parse(`#EXTINF:-1 tvg-name="x tvg-id" tvg-id="7",T`).Metadata
			So(*md.TvgID, ShouldEqual, " tvg-id=")
			So(*md.TvgName, ShouldEqual, "x tvg-id")
		})

		Convey("Empty quoted values are present but empty", func() {
			md := parse(`#EXTINF:-1 tvg-logo="",T`).Metadata
			So(md.TvgLogo, ShouldResemble, strPtr(""))
		})
	})
}

func TestDeserializeBytes(t *testing.T) {
	Convey("Byte input", t, func() {
		Convey("accepts mixed line endings and drops blank lines", func() {
			data := []byte("#EXTM3U\r\n\r\n#EXTINF:1,A\r\na.mp3\n\n#EXTINF:2,B\nb.mp3\n")
			p, err := DeserializeBytes(data)
			So(err, ShouldBeNil)
			So(p.Entries, ShouldHaveLength, 2)
			So(p.Entries[0].FilePath, ShouldEqual, "a.mp3")
			So(p.Entries[1].Title, ShouldEqual, "B")
		})

		Convey("tolerates a byte order mark", func() {
			p, err := DeserializeBytes([]byte("\xef\xbb\xbf#EXTM3U\n#EXTINF:1,Ä\nä.mp3\n"))
			So(err, ShouldBeNil)
			So(p.Entries[0].Title, ShouldEqual, "Ä")
			So(p.Entries[0].FilePath, ShouldEqual, "ä.mp3")
		})
	})
}

func TestDeserializeReader(t *testing.T) {
	Convey("Reader input", t, func() {
		Convey("parses everything the reader yields", func() {
			p, err := DeserializeReader(strings.NewReader("#EXTM3U cache=\"3\"\n#EXTINF:5,A\na.mp3\n"))
			So(err, ShouldBeNil)
			So(p.Cache, ShouldEqual, 3)
			So(p.Entries, ShouldHaveLength, 1)
		})

		Convey("returns read errors unchanged underneath", func() {
			boom := errors.New("connection reset")
			_, err := DeserializeReader(iotest.ErrReader(boom))
			So(errors.Is(err, boom), ShouldBeTrue)
			So(errors.Is(err, ErrFormat), ShouldBeFalse)
		})

		Convey("rejects a body without a header", func() {
			_, err := DeserializeReader(strings.NewReader("<html></html>"))
			So(errors.Is(err, ErrFormat), ShouldBeTrue)
		})
	})
}

func TestDeserializeFile(t *testing.T) {
	Convey("Given an in-memory filesystem", t, func() {
		fs := afero.NewMemMapFs()
		content := "#EXTM3U\n#EXTINF:-1 tvg-name=\"DasErste\" group-title=\"DE\",Das Erste HD\nhttps://daserste.example/master.m3u8\n"
		So(afero.WriteFile(fs, "/lists/tv.m3u", []byte(content), 0o644), ShouldBeNil)

		Convey("A playlist file is read and parsed", func() {
			p, err := DeserializeFile(fs, "/lists/tv.m3u")
			So(err, ShouldBeNil)
			So(p.Entries, ShouldHaveLength, 1)
			So(p.Entries[0].Duration, ShouldEqual, -1)
			So(p.Entries[0].Title, ShouldEqual, "Das Erste HD")
			So(p.Entries[0].FilePath, ShouldEqual, "https://daserste.example/master.m3u8")
		})

		Convey("A missing file is an IO error, not a format error", func() {
			_, err := DeserializeFile(fs, "/lists/missing.m3u")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrFormat), ShouldBeFalse)
		})
	})
}
