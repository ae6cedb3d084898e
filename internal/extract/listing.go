package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/i474232898/skimeister/internal/common"
	"github.com/i474232898/skimeister/internal/resort"
)

// ListingEntry is one resort link from a country overview page.
type ListingEntry struct {
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	URL     string `json:"url"`
	Country string `json:"country"`
}

const maxForecastDays = 7

var (
	skiHref      = regexp.MustCompile(`/[^/]+/ski/`)
	resortHref   = regexp.MustCompile(`^/([^/]+)/$`)
	resortSkiRef = regexp.MustCompile(`^/([^/]+)/ski/.*`)
)

// ListingURL is the overview page listing every resort of a country.
func ListingURL(baseURL, country string) string {
	return fmt.Sprintf("%s/%s/skigebiete/", strings.TrimRight(baseURL, "/"), country)
}

// ParseListing returns the resorts linked from a country overview page,
// deduplicated by URL and in document order.
func ParseListing(document, baseURL, country string) ([]ListingEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("%w: parse listing: %w", ErrExtractionFailed, err)
	}

	links := doc.Find("a.js-track")
	if links.Length() == 0 {
		links = doc.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			return skiHref.MatchString(href)
		})
	}

	base := strings.TrimRight(baseURL, "/")
	countryName := common.Capitalize(country)
	seen := make(map[string]struct{})
	var out []ListingEntry

	links.Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		m := resortHref.FindStringSubmatch(href)
		if m == nil {
			m = resortSkiRef.FindStringSubmatch(href)
		}
		if m == nil {
			return
		}

		slug := m[1]
		u := fmt.Sprintf("%s/%s/", base, slug)
		if _, dup := seen[u]; dup {
			return
		}

		nameSel := s.Find("span").First()
		if nameSel.Length() == 0 {
			nameSel = s
		}
		name := common.CollapseSpace(nameSel.Text())
		if len([]rune(name)) <= 2 {
			return
		}

		seen[u] = struct{}{}
		out = append(out, ListingEntry{Name: name, Slug: slug, URL: u, Country: countryName})
	})

	return out, nil
}

// ParseForecast reads up to seven days from a resort forecast page.
// Day i is dated today+i; today is truncated to midnight UTC.
func ParseForecast(document string, today time.Time) ([]resort.ForecastDay, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("%w: parse forecast: %w", ErrExtractionFailed, err)
	}

	container := doc.Find(".forecast9d-container, .forecast9d").First()
	if container.Length() == 0 {
		return nil, nil
	}

	base := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	var days []resort.ForecastDay

	container.Find(".day").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxForecastDays {
			return false
		}
		day := resort.ForecastDay{Date: base.AddDate(0, 0, i)}

		var temps []int
		s.Find(".temp").Each(func(_ int, t *goquery.Selection) {
			if v := common.SignedInts(t.Text()); len(v) > 0 {
				temps = append(temps, v[0])
			}
		})
		if len(temps) >= 2 {
			lo, hi := float64(temps[0]), float64(temps[0])
			for _, v := range temps[1:] {
				lo = min(lo, float64(v))
				hi = max(hi, float64(v))
			}
			day.TempMin = &lo
			day.TempMax = &hi
		}

		if snow := s.Find(".snow, .fresh-snow").First(); snow.Length() > 0 {
			if n, ok := common.FirstInt(snow.Text()); ok {
				day.SnowForecastCm = n
			}
		}

		if src, ok := s.Find("img[src]").First().Attr("src"); ok {
			day.Symbol = symbolFromSrc(src)
		}

		days = append(days, day)
		return true
	})

	return days, nil
}

func symbolFromSrc(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	name := src[strings.LastIndex(src, "/")+1:]
	stem, _, _ := strings.Cut(name, ".")
	return stem
}
