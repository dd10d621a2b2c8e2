package scanner

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.senan.xyz/taglib"
)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

var leadingIntegerPattern = regexp.MustCompile(`\d+`)

// Metadata holds the parsed tags of one audio file.
type Metadata struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Genre       string
	Year        *int
	// DurationSeconds is rounded to the nearest whole second.
	DurationSeconds int
}

// ExtractMetadata parses one file's tags. The second return value is false
// when the file carries no title tag; such files are never indexed.
func ExtractMetadata(path string) (Metadata, bool, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return Metadata{}, false, fmt.Errorf("read tags %s: %w", path, err)
	}

	title := firstTagValue(tags, taglib.Title, "TITLE")
	if title == "" {
		return Metadata{}, false, nil
	}

	metadata := Metadata{
		Title:       title,
		Artist:      firstTagValue(tags, taglib.Artist, "ARTIST"),
		Album:       firstTagValue(tags, taglib.Album, "ALBUM"),
		AlbumArtist: firstTagValue(tags, taglib.AlbumArtist, "ALBUMARTIST"),
		Genre:       firstTagValue(tags, taglib.Genre, "GENRE"),
		Year:        parseYearTag(firstTagValue(tags, taglib.Date, "DATE", "YEAR", "ORIGINALDATE", "RELEASEDATE")),
	}

	if metadata.Album == "" {
		metadata.Album = "Unknown Album"
	}
	if metadata.AlbumArtist == "" {
		metadata.AlbumArtist = metadata.Artist
	}

	properties, propertiesErr := taglib.ReadProperties(path)
	if propertiesErr == nil && properties.Length > 0 {
		metadata.DurationSeconds = int(math.Round(properties.Length.Seconds()))
	}

	return metadata, true, nil
}

func firstTagValue(tags map[string][]string, keys ...string) string {
	for _, key := range keys {
		values, ok := tags[key]
		if !ok {
			continue
		}
		for _, value := range values {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return trimmed
			}
		}
	}

	return ""
}

func parseYearTag(value string) *int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	match := yearPattern.FindString(trimmed)
	if match == "" {
		if fallback := leadingIntegerPattern.FindString(trimmed); fallback != "" {
			if parsed, err := strconv.Atoi(fallback); err == nil && parsed >= 1000 && parsed <= 3000 {
				return &parsed
			}
		}
		return nil
	}

	parsed, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}

	return &parsed
}
