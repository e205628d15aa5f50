package models

import "fmt"

// Env is the execution environment a marketplace integration runs in.
type Env string

const (
	EnvLTS    Env = "LTS"
	EnvLatest Env = "LATEST"
	EnvPolza  Env = "POLZA"
)

// ParseEnv converts a registry string into an Env.
func ParseEnv(s string) (Env, error) {
	switch Env(s) {
	case EnvLTS, EnvLatest, EnvPolza:
		return Env(s), nil
	default:
		return "", fmt.Errorf("unknown environment %q", s)
	}
}

// Region describes one regional branch a marketplace operates in: the
// short code used in queries, the owning company and the display city.
type Region struct {
	Code        string `json:"code"`
	CompanyID   int    `json:"company_id"`
	CompanyName string `json:"company_name"`
	City        string `json:"city"`
}

// knownRegions maps registry region codes to their descriptors. Company
// ids match the CMS database; cities are the labels the job backend uses.
var knownRegions = map[string]Region{
	"MSK": {Code: "MSK", CompanyID: 1, CompanyName: `ООО "ФК ПУЛЬС"`, City: "Москва"},
	"YRS": {Code: "YRS", CompanyID: 2, CompanyName: `ООО "ПУЛЬС Ярославль"`, City: "Ярославль"},
	"BRN": {Code: "BRN", CompanyID: 4, CompanyName: `ООО "ПУЛЬС Брянск"`, City: "Брянск"},
	"SPB": {Code: "SPB", CompanyID: 5, CompanyName: `ООО "ПУЛЬС СПб"`, City: "СПб"},
	"VLG": {Code: "VLG", CompanyID: 6, CompanyName: `ООО "ПУЛЬС Волгоград"`, City: "Волгоград"},
	"VRN": {Code: "VRN", CompanyID: 7, CompanyName: `ООО "ПУЛЬС Воронеж"`, City: "Воронеж"},
	"KZN": {Code: "KZN", CompanyID: 8, CompanyName: `ООО "ПУЛЬС Казань"`, City: "Казань"},
	"KRN": {Code: "KRN", CompanyID: 9, CompanyName: `ООО "ПУЛЬС Краснодар"`, City: "Краснодар"},
	"HBR": {Code: "HBR", CompanyID: 10, CompanyName: `ООО "ПУЛЬС Хабаровск"`, City: "Хабаровск"},
	"IRK": {Code: "IRK", CompanyID: 11, CompanyName: `ООО "ПУЛЬС Иркутск"`, City: "Иркутск"},
	"KRS": {Code: "KRS", CompanyID: 12, CompanyName: `ООО "ПУЛЬС Красноярск"`, City: "Красноярск"},
	"EKB": {Code: "EKB", CompanyID: 13, CompanyName: `ООО "ПУЛЬС Екатеринбург"`, City: "Екатеринбург"},
	"NSK": {Code: "NSK", CompanyID: 14, CompanyName: `ООО "ПУЛЬС Новосибирск"`, City: "Новосибирск"},
	"SAM": {Code: "SAM", CompanyID: 15, CompanyName: `ООО "ПУЛЬС Самара"`, City: "Самара"},
}

// RegionByCode resolves a region code from the registry.
func RegionByCode(code string) (Region, bool) {
	r, ok := knownRegions[code]
	return r, ok
}

// RegionCodes returns all known region codes. Order is unspecified.
func RegionCodes() []string {
	codes := make([]string, 0, len(knownRegions))
	for c := range knownRegions {
		codes = append(codes, c)
	}
	return codes
}

// Marketplace is the target of one report run. Loaded from the registry
// once per run and never mutated.
type Marketplace struct {
	Active  bool     `json:"active"`
	ID      int      `json:"id"`
	GUID    string   `json:"guid"`
	Name    string   `json:"name"` // must match the database name
	ELKName string   `json:"elk_name"`
	Env     Env      `json:"env"`
	Regions []Region `json:"regions"`
}
