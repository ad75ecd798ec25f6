package config

// DefaultDenylistDomains lists hosts whose visits are never recorded.
// A rule also covers every subdomain of the host.
func DefaultDenylistDomains() []string {
	return []string{
		// banking
		"chase.com",
		"bankofamerica.com",
		"wellsfargo.com",
		"capitalone.com",
		"schwab.com",
		"fidelity.com",
		"vanguard.com",
		"paypal.com",
		"venmo.com",

		// password managers
		"1password.com",
		"lastpass.com",
		"bitwarden.com",
		"dashlane.com",

		// sign-in pages
		"accounts.google.com",
		"login.microsoftonline.com",
		"login.live.com",
		"okta.com",

		// health
		"mychart.com",
		"kp.org",
		"healthcare.gov",

		// government
		"irs.gov",
		"ssa.gov",
		"login.gov",
		"id.me",
	}
}
