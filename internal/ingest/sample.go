package ingest

import "github.com/i474232898/skimeister/internal/resort"

type sampleConditions struct {
	valley, mountain, fresh24h int
	tempValley, tempMountain   float64
	wind                       int
	visibility                 string
	slopesOpen, slopesTotal    float64
	liftsOpen, liftsTotal      int
}

func sample(name, slug, region, website string, lat, lon float64, altMin, altMax int, c sampleConditions, adult, child float64) resort.Resort {
	return resort.Resort{
		Name:        name,
		Slug:        slug,
		Country:     "Switzerland",
		Region:      region,
		Latitude:    resort.Ptr(lat),
		Longitude:   resort.Ptr(lon),
		AltitudeMin: resort.Ptr(altMin),
		AltitudeMax: resort.Ptr(altMax),
		Website:     website,
		Conditions: &resort.Conditions{
			SnowDepthValley:     resort.Ptr(c.valley),
			SnowDepthMountain:   resort.Ptr(c.mountain),
			FreshSnow24h:        resort.Ptr(c.fresh24h),
			TemperatureValley:   resort.Ptr(c.tempValley),
			TemperatureMountain: resort.Ptr(c.tempMountain),
			WindSpeed:           resort.Ptr(c.wind),
			Visibility:          c.visibility,
			SlopesOpenKm:        resort.Ptr(c.slopesOpen),
			SlopesTotalKm:       resort.Ptr(c.slopesTotal),
			LiftsOpen:           resort.Ptr(c.liftsOpen),
			LiftsTotal:          resort.Ptr(c.liftsTotal),
			Status:              resort.Ptr(resort.StatusOpen),
		},
		Pricing: &resort.Pricing{
			AdultDayPass: resort.Ptr(adult),
			ChildDayPass: resort.Ptr(child),
			Currency:     "CHF",
		},
	}
}

// SampleResorts returns a fixed set of Swiss resorts with conditions and
// pricing, used to seed development databases.
func SampleResorts() []resort.Resort {
	return []resort.Resort{
		sample("Zermatt - Matterhorn", "zermatt-matterhorn", "Valais", "https://www.zermatt.ch",
			45.9763, 7.7476, 1620, 3883,
			sampleConditions{25, 180, 5, -3, -12, 15, "good", 320, 360, 48, 52}, 89, 45),
		sample("Verbier - 4 Vallées", "verbier-4-vallees", "Valais", "https://www.verbier.ch",
			46.0964, 7.2282, 1500, 3330,
			sampleConditions{30, 195, 10, -2, -10, 20, "good", 380, 410, 80, 92}, 82, 41),
		sample("St. Moritz", "st-moritz", "Graubünden", "https://www.stmoritz.ch",
			46.4908, 9.8355, 1720, 3057,
			sampleConditions{40, 165, 0, -5, -11, 25, "moderate", 280, 350, 54, 56}, 79, 39),
		sample("Jungfrau - Grindelwald", "jungfrau-grindelwald", "Bern", "https://www.jungfrau.ch",
			46.6238, 8.0411, 943, 2971,
			sampleConditions{20, 210, 15, -1, -9, 18, "good", 200, 206, 42, 44}, 74, 37),
		sample("Davos Klosters", "davos-klosters", "Graubünden", "https://www.davos.ch",
			46.8029, 9.8227, 1124, 2844,
			sampleConditions{35, 155, 8, -4, -13, 22, "good", 290, 300, 51, 53}, 76, 38),
		sample("Laax", "laax", "Graubünden", "https://www.laax.com",
			46.8332, 9.2607, 1100, 3018,
			sampleConditions{45, 190, 12, -3, -11, 16, "excellent", 220, 224, 27, 28}, 81, 40),
		sample("Engelberg-Titlis", "engelberg-titlis", "Central Switzerland", "https://www.engelberg.ch",
			46.8237, 8.4079, 1050, 3020,
			sampleConditions{50, 240, 20, -2, -14, 28, "moderate", 80, 82, 24, 25}, 73, 36),
		sample("Arosa Lenzerheide", "arosa-lenzerheide", "Graubünden", "https://www.arosalenzerheide.swiss",
			46.7828, 9.6759, 1229, 2865,
			sampleConditions{28, 170, 3, -6, -12, 19, "good", 215, 225, 40, 43}, 77, 38),
	}
}
