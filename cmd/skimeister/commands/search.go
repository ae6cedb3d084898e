package commands

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/i474232898/skimeister/internal/resort"
	"github.com/i474232898/skimeister/internal/search"
)

var searchFlags struct {
	lat, lng  float64
	radius    float64
	sort      string
	minSnow   int
	status    string
	minSlopes float64
	maxPrice  float64
	country   string
}

func init() {
	f := searchCmd.Flags()
	f.Float64Var(&searchFlags.lat, "lat", 0, "Latitude of the origin.")
	f.Float64Var(&searchFlags.lng, "lng", 0, "Longitude of the origin.")
	f.Float64Var(&searchFlags.radius, "radius", 0, "Search radius in km (defaults to DEFAULT_SEARCH_RADIUS_KM).")
	f.StringVar(&searchFlags.sort, "sort", string(search.SortDistance), "Ordering: distance, name, price or snow.")
	f.IntVar(&searchFlags.minSnow, "min-snow", 0, "Minimum mountain snow depth in cm.")
	f.StringVar(&searchFlags.status, "status", "", "Operating status: open, closed, partial or unknown.")
	f.Float64Var(&searchFlags.minSlopes, "min-slopes", 0, "Minimum open slopes in km.")
	f.Float64Var(&searchFlags.maxPrice, "max-price", 0, "Maximum adult day pass price.")
	f.StringVar(&searchFlags.country, "country", "", "Exact country name.")
	_ = searchCmd.MarkFlagRequired("lat")
	_ = searchCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search --lat <lat> --lng <lng> [--radius km] [--sort key] [filters]",
	Short: "Lists stored resorts near a location.",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeRepo, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer closeRepo()

		all, err := repo.ListResorts(cmd.Context())
		if err != nil {
			return fmt.Errorf("list resorts: %w", err)
		}

		flags := cmd.Flags()
		q := search.Query{
			Origin: search.Point{Lat: searchFlags.lat, Lng: searchFlags.lng},
			Sort:   search.SortKey(searchFlags.sort),
		}
		if flags.Changed("radius") {
			q.RadiusKm = &searchFlags.radius
		}
		if flags.Changed("min-snow") {
			q.Filters.MinSnow = &searchFlags.minSnow
		}
		if s, ok := resort.ParseStatus(searchFlags.status); ok {
			q.Filters.Status = &s
		}
		if flags.Changed("min-slopes") {
			q.Filters.MinSlopes = &searchFlags.minSlopes
		}
		if flags.Changed("max-price") {
			q.Filters.MaxPrice = &searchFlags.maxPrice
		}
		if searchFlags.country != "" {
			q.Filters.Country = &searchFlags.country
		}

		result := search.NewEngine(cfg.RadiusBounds()).Search(all, q)

		t := newTable()
		t.SetTitle("%d resorts within %s km", result.Count, strconv.FormatFloat(result.RadiusKm, 'f', -1, 64))
		t.AppendHeader(table.Row{"ID", "Name", "Country", "Distance", "Snow", "Status", "Adult pass"})
		for _, item := range result.Items {
			t.AppendRow(table.Row{
				item.ID,
				item.Name,
				item.Country,
				fmt.Sprintf("%.1f km", item.DistanceKm),
				snowColumn(item.Resort),
				statusColumn(item.Resort),
				priceColumn(item.Resort),
			})
		}
		t.Render()
		return nil
	},
}

func snowColumn(r resort.Resort) string {
	if r.Conditions == nil {
		return "-"
	}
	return orDash(r.Conditions.SnowDepthMountain, " cm")
}

func statusColumn(r resort.Resort) string {
	if r.Conditions == nil || r.Conditions.Status == nil {
		return "-"
	}
	return string(*r.Conditions.Status)
}

func priceColumn(r resort.Resort) string {
	if r.Pricing == nil {
		return "-"
	}
	return orDash(r.Pricing.AdultDayPass, " "+r.Pricing.Currency)
}
