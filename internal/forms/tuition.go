package forms

// per-credit rates by program, then residency
var tuitionRates = map[string]map[string]int{
	"undergraduate": {"instate": 300, "outstate": 800},
	"graduate":      {"instate": 500, "outstate": 1200},
	"doctoral":      {"instate": 600, "outstate": 1400},
}

// defaultRate applies to an unknown program.
const defaultRate = 500

type Tuition struct {
	Program   string `json:"program"`
	Residency string `json:"residency"`
	Credits   int    `json:"credits"`
	Rate      int    `json:"rate"`
	Base      int    `json:"base"`
	Fees      int    `json:"fees"`
	Total     int    `json:"total"`
}

// EstimateTuition prices credits for a program. An unknown residency is
// charged the out-of-state rate. Fees are 10% of base, rounded down.
// Negative credits count as zero.
func EstimateTuition(program, residency string, credits int) Tuition {
	if credits < 0 {
		credits = 0
	}
	rate := defaultRate
	if byRes, ok := tuitionRates[program]; ok {
		if r, ok := byRes[residency]; ok {
			rate = r
		} else {
			rate = byRes["outstate"]
		}
	}
	base := rate * credits
	fees := base / 10
	return Tuition{
		Program:   program,
		Residency: residency,
		Credits:   credits,
		Rate:      rate,
		Base:      base,
		Fees:      fees,
		Total:     base + fees,
	}
}
