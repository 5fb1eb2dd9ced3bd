package config

// Plan describes a subscription tier. Plans gate usage (monthly query quota,
// pages per uploaded document) outside the chat request path.
type Plan struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Quota       int    `json:"quota"`
	PagesPerDoc int    `json:"pages_per_doc"`
	PriceUSD    int    `json:"price_usd"`
}

// Plans are the available tiers.
var Plans = []Plan{
	{
		Name:        "Free",
		Slug:        "free",
		Quota:       10,
		PagesPerDoc: 5,
		PriceUSD:    0,
	},
	{
		Name:        "Pro",
		Slug:        "pro",
		Quota:       50,
		PagesPerDoc: 1000,
		PriceUSD:    40,
	},
}

// PlanBySlug returns the plan for slug; the Free plan when unknown.
func PlanBySlug(slug string) Plan {
	for _, p := range Plans {
		if p.Slug == slug {
			return p
		}
	}
	return Plans[0]
}
