package analyzer

// BrandPattern pairs a brand name with the domains it legitimately uses.
// An empty OfficialDomains list means any domain containing the name
// is treated as impersonation.
type BrandPattern struct {
	Name            string
	OfficialDomains []string
}

// isOfficialDomain reports whether domain is one of the brand's own domains
func (b BrandPattern) isOfficialDomain(domain string) bool {
	for _, official := range b.OfficialDomains {
		if domain == official {
			return true
		}
	}
	return false
}

// DefaultBrands returns the static brand registry used for
// impersonation detection. Read-only; never mutated at runtime.
func DefaultBrands() []BrandPattern {
	return brandPatterns
}

var brandPatterns = []BrandPattern{
	// Payments & finance (global)
	{Name: "paypal", OfficialDomains: []string{"paypal.com"}},
	{Name: "visa", OfficialDomains: []string{}},
	{Name: "mastercard", OfficialDomains: []string{}},
	{Name: "stripe", OfficialDomains: []string{"stripe.com"}},
	{Name: "revolut", OfficialDomains: []string{"revolut.com"}},
	{Name: "wise", OfficialDomains: []string{"wise.com", "transferwise.com"}},
	{Name: "bank", OfficialDomains: []string{}},

	// Big tech & platforms
	{Name: "google", OfficialDomains: []string{"google.com", "accounts.google.com"}},
	{Name: "apple", OfficialDomains: []string{"apple.com", "icloud.com"}},
	{Name: "microsoft", OfficialDomains: []string{"microsoft.com", "live.com", "office.com"}},
	{Name: "windows", OfficialDomains: []string{}},
	{Name: "amazon", OfficialDomains: []string{"amazon.com"}},
	{Name: "netflix", OfficialDomains: []string{"netflix.com"}},
	{Name: "facebook", OfficialDomains: []string{"facebook.com"}},
	{Name: "instagram", OfficialDomains: []string{"instagram.com"}},
	{Name: "whatsapp", OfficialDomains: []string{"whatsapp.com"}},
	{Name: "tiktok", OfficialDomains: []string{"tiktok.com"}},
	{Name: "twitter", OfficialDomains: []string{"twitter.com", "x.com"}},

	// Global shopping & brands
	{Name: "adidas", OfficialDomains: []string{"adidas.com"}},
	{Name: "nike", OfficialDomains: []string{"nike.com"}},
	{Name: "ebay", OfficialDomains: []string{"ebay.com"}},

	// Sri Lankan banks
	{Name: "boc", OfficialDomains: []string{"boc.lk", "online.boc.lk"}},
	{Name: "peoples bank", OfficialDomains: []string{"peoplesbank.lk"}},
	{Name: "commercial bank", OfficialDomains: []string{"combank.net"}},
	{Name: "hnb", OfficialDomains: []string{"hnb.net"}},
	{Name: "sampath", OfficialDomains: []string{"sampath.lk"}},
	{Name: "seylan", OfficialDomains: []string{"seylan.lk"}},
	{Name: "ndb", OfficialDomains: []string{"ndbbank.com"}},
	{Name: "dfcc", OfficialDomains: []string{"dfcc.lk"}},
	{Name: "nation trust", OfficialDomains: []string{"nationstrust.com"}},
	{Name: "cargills bank", OfficialDomains: []string{"cargillsbank.com"}},

	// Sri Lankan telcos
	{Name: "dialog", OfficialDomains: []string{"dialog.lk"}},
	{Name: "mobitel", OfficialDomains: []string{"mobitel.lk", "slt.lk"}},
	{Name: "hutch", OfficialDomains: []string{"hutch.lk"}},
	{Name: "airtel", OfficialDomains: []string{"airtel.lk"}},

	// Sri Lankan e-commerce / services
	{Name: "kapruka", OfficialDomains: []string{"kapruka.com"}},
	{Name: "daraz", OfficialDomains: []string{"daraz.lk"}},
	{Name: "ikman", OfficialDomains: []string{"ikman.lk"}},

	// Sri Lankan gov portals
	{Name: "gov", OfficialDomains: []string{"gov.lk"}},
	{Name: "immigration", OfficialDomains: []string{"immigration.gov.lk"}},
	{Name: "iraj", OfficialDomains: []string{}},
}
