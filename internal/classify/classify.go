// Package classify decides whether a completed download is a movie or a TV
// episode and where it belongs in the library.
package classify

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrUnclassifiable is returned for names whose season marker leaves no
	// show name in front of it.
	ErrUnclassifiable = errors.New("path cannot be classified")
	// ErrNoTarget is returned when the library directory for a classification
	// is not configured.
	ErrNoTarget = errors.New("no library directory configured")
)

var seasonPattern = regexp.MustCompile(`[sS](\d{2})`)

// Kind distinguishes movies from episodes.
type Kind int

const (
	Movie Kind = iota
	Episode
)

func (k Kind) String() string {
	switch k {
	case Episode:
		return "episode"
	default:
		return "movie"
	}
}

// Classification is the result of inspecting a path's final segment.
type Classification struct {
	Kind     Kind
	Filename string
	// ShowName and Season are only set for episodes.
	ShowName string
	Season   int8
}

// Roots names the movie and tv directories below the library save root.
// Either may be empty.
type Roots struct {
	MoviesDir string
	TVDir     string
}

// Classify inspects the final segment of path. Ancestor directories are not
// considered.
func Classify(path string) (Classification, error) {
	name := filepath.Base(filepath.Clean(path))
	if name == "." || name == string(filepath.Separator) || strings.TrimSpace(path) == "" {
		return Classification{}, fmt.Errorf("%w: %q has no final segment", ErrUnclassifiable, path)
	}

	loc := seasonPattern.FindStringSubmatchIndex(name)
	if loc == nil {
		return Classification{Kind: Movie, Filename: name}, nil
	}

	start := loc[0]
	if start == 0 {
		return Classification{}, fmt.Errorf("%w: season marker starts %q", ErrUnclassifiable, name)
	}
	_, sepWidth := utf8.DecodeLastRuneInString(name[:start])
	show := name[:start-sepWidth]
	if show == "" {
		return Classification{}, fmt.Errorf("%w: no show name before season marker in %q", ErrUnclassifiable, name)
	}

	season, err := strconv.ParseInt(name[loc[2]:loc[3]], 10, 8)
	if err != nil {
		return Classification{}, fmt.Errorf("%w: season %q: %v", ErrUnclassifiable, name[loc[2]:loc[3]], err)
	}

	return Classification{
		Kind:     Episode,
		Filename: name,
		ShowName: show,
		Season:   int8(season),
	}, nil
}

// SeasonDir renders the zero padded season directory name.
func (c Classification) SeasonDir() string {
	return fmt.Sprintf("%02d", c.Season)
}

// Target returns the destination relative to the library save root. Episode
// directories land in the season folder itself; episode files land inside it.
func Target(c Classification, isDir bool, roots Roots) (string, error) {
	switch c.Kind {
	case Episode:
		if roots.TVDir == "" {
			return "", fmt.Errorf("%w: tv", ErrNoTarget)
		}
		seasonPath := filepath.Join(roots.TVDir, c.ShowName, c.SeasonDir())
		if isDir {
			return seasonPath, nil
		}
		return filepath.Join(seasonPath, c.Filename), nil
	default:
		if roots.MoviesDir == "" {
			return "", fmt.Errorf("%w: movies", ErrNoTarget)
		}
		return filepath.Join(roots.MoviesDir, c.Filename), nil
	}
}

var titleCaser = cases.Title(language.English)

// DisplayTitle renders a human readable title such as "Show Name S02".
func (c Classification) DisplayTitle() string {
	switch c.Kind {
	case Episode:
		return fmt.Sprintf("%s S%s", humanize(c.ShowName), c.SeasonDir())
	default:
		name := c.Filename
		if ext := filepath.Ext(name); ext != "" && len(ext) <= 5 {
			name = strings.TrimSuffix(name, ext)
		}
		return humanize(name)
	}
}

func humanize(s string) string {
	s = strings.NewReplacer(".", " ", "_", " ").Replace(s)
	return titleCaser.String(strings.Join(strings.Fields(s), " "))
}
