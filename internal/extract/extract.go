// Package extract turns fetched resort pages into partial resort records.
// Every function here is pure; fetching happens elsewhere.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/i474232898/skimeister/internal/common"
	"github.com/i474232898/skimeister/internal/resort"
)

// ErrExtractionFailed is returned when a document cannot be parsed or has no title.
var ErrExtractionFailed = errors.New("extraction failed")

const forecastPath = "/wetter/prognose/"

var (
	altitudePattern = regexp.MustCompile(`(\d+)\s*m\s*-\s*(\d+)\s*m`)
	panelPattern    = regexp.MustCompile(`(?i)current information|current snow report`)
	mountainLabel   = regexp.MustCompile(`(?i)mountain:?`)
	valleyLabel     = regexp.MustCompile(`(?i)valley:?`)
	mountainColon   = regexp.MustCompile(`(?i)mountain:`)
	valleyColon     = regexp.MustCompile(`(?i)valley:`)
)

// ForecastURL returns the conventional forecast page for a resort page.
func ForecastURL(sourceURL string) string {
	return strings.TrimRight(sourceURL, "/") + forecastPath
}

// SlugFromURL returns the first path segment of a resort URL.
func SlugFromURL(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	return parts[0]
}

// Extract reads what it can from a resort detail page. Each pass fills its own
// fields and leaves them unset when the page does not carry the information.
func Extract(document, sourceURL string) (resort.Resort, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return resort.Resort{}, fmt.Errorf("%w: parse %s: %w", ErrExtractionFailed, sourceURL, err)
	}

	name, ok := firstOf(doc,
		headingText("h1"),
		headingText("h2"),
		headingText("h3"),
		metaProperty("og:title"),
	)
	if !ok {
		return resort.Resort{}, fmt.Errorf("%w: no title in %s", ErrExtractionFailed, sourceURL)
	}

	r := resort.Resort{
		Name:      name,
		Slug:      SlugFromURL(sourceURL),
		SourceURL: sourceURL,
	}

	if sd, ok := structuredData(doc); ok {
		r.Latitude = sd.latitude
		r.Longitude = sd.longitude
		r.Description = sd.description
		r.Region = sd.region
		r.Website = sd.website
	}

	if lo, hi, ok := altitudeBand(doc); ok {
		r.AltitudeMin = &lo
		r.AltitudeMax = &hi
	}

	var cond resort.Conditions
	found := false
	if d, ok := firstOf(doc, panelDepths, labeledDepths); ok {
		cond.SnowDepthMountain = d.mountain
		cond.SnowDepthValley = d.valley
		found = true
	}
	if st, ok := operatingStatus(doc); ok {
		cond.Status = &st
		found = true
	}
	if found {
		r.Conditions = &cond
	}

	return r, nil
}

type geodata struct {
	latitude    *float64
	longitude   *float64
	description string
	region      string
	website     string
}

// structuredData reads the first JSON-LD item describing a ski resort or
// carrying a geo field. Malformed blocks are skipped.
func structuredData(doc *goquery.Document) (geodata, bool) {
	var (
		out   geodata
		found bool
	)
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true
		}
		for _, item := range ldItems(raw) {
			if !isResortItem(item) {
				continue
			}
			out, found = readGeodata(item), true
			return false
		}
		return true
	})
	return out, found
}

func ldItems(raw any) []map[string]any {
	var out []map[string]any
	switch v := raw.(type) {
	case []any:
		for _, e := range v {
			out = append(out, ldItems(e)...)
		}
	case map[string]any:
		out = append(out, v)
		if graph, ok := v["@graph"]; ok {
			out = append(out, ldItems(graph)...)
		}
	}
	return out
}

func isResortItem(item map[string]any) bool {
	if _, ok := item["geo"]; ok {
		return true
	}
	switch t := item["@type"].(type) {
	case string:
		return t == "SkiResort"
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && s == "SkiResort" {
				return true
			}
		}
	}
	return false
}

func readGeodata(item map[string]any) geodata {
	var g geodata
	if geo, ok := item["geo"].(map[string]any); ok {
		lat, latOK := number(geo["latitude"])
		lon, lonOK := number(geo["longitude"])
		if latOK && lonOK {
			g.latitude = &lat
			g.longitude = &lon
		}
	}
	if d, ok := item["description"].(string); ok {
		g.description = resort.Truncate(strings.TrimSpace(d), resort.MaxDescriptionLength)
	}
	if addr, ok := item["address"].(map[string]any); ok {
		if region, ok := addr["addressRegion"].(string); ok {
			g.region = strings.TrimSpace(region)
		}
	}
	if u, ok := item["url"].(string); ok {
		g.website = strings.TrimSpace(u)
	}
	return g
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// altitudeBand returns the first "<min>m - <max>m" range in the page text.
func altitudeBand(doc *goquery.Document) (lo, hi int, ok bool) {
	for _, n := range doc.Nodes {
		walkText(n, func(text string) bool {
			m := altitudePattern.FindStringSubmatch(text)
			if m == nil {
				return true
			}
			a, errA := strconv.Atoi(m[1])
			b, errB := strconv.Atoi(m[2])
			if errA != nil || errB != nil {
				return true
			}
			lo, hi, ok = a, b, true
			return false
		})
	}
	return lo, hi, ok
}

type depths struct {
	mountain *int
	valley   *int
}

func (d depths) any() bool {
	return d.mountain != nil || d.valley != nil
}

func readDepths(scope *goquery.Selection, mountain, valley *regexp.Regexp) depths {
	var d depths
	if n, ok := labeledInt(scope, mountain); ok {
		d.mountain = &n
	}
	if n, ok := labeledInt(scope, valley); ok {
		d.valley = &n
	}
	return d
}

// panelDepths reads the dedicated current conditions panel.
func panelDepths(doc *goquery.Document) (depths, bool) {
	heading := findOwnText(doc.Selection, panelPattern)
	if heading == nil {
		return depths{}, false
	}
	// A heading without its own container does not delimit a panel; the
	// page-wide labelled pass handles that layout.
	panel := heading.Parent()
	if panel.Length() == 0 || panel.Is("body, html") {
		return depths{}, false
	}
	d := readDepths(panel, mountainLabel, valleyLabel)
	return d, d.any()
}

// labeledDepths looks for "Mountain:" and "Valley:" labels anywhere in the page.
func labeledDepths(doc *goquery.Document) (depths, bool) {
	d := readDepths(doc.Selection, mountainColon, valleyColon)
	return d, d.any()
}

func operatingStatus(doc *goquery.Document) (resort.Status, bool) {
	sel := doc.Find(".resort-status, .status-label").First()
	if sel.Length() == 0 {
		return "", false
	}
	text := strings.ToLower(common.CollapseSpace(sel.Text()))
	switch {
	case strings.Contains(text, "open"):
		return resort.StatusOpen, true
	case strings.Contains(text, "closed"):
		return resort.StatusClosed, true
	default:
		return resort.StatusPartial, true
	}
}
