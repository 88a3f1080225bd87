package island

import "sort"

var defaultProfiles = []CityProfile{
	{Key: "istanbul", Name: "İstanbul", Tags: []string{"metropol", "kıyı"}, Coordinate: Coordinate{41.0082, 28.9784}},
	{Key: "ankara", Name: "Ankara", Tags: []string{"metropol"}, Coordinate: Coordinate{39.9334, 32.8597}},
	{Key: "izmir", Name: "İzmir", Tags: []string{"metropol", "kıyı"}, Coordinate: Coordinate{38.4237, 27.1428}},
	{Key: "antalya", Name: "Antalya", Tags: []string{"kıyı", "turizm"}, Coordinate: Coordinate{36.8969, 30.7133}},
	{Key: "alanya", Name: "Alanya", Tags: []string{"kıyı", "turizm"}, Coordinate: Coordinate{36.5444, 31.9954}},
	{Key: "bursa", Name: "Bursa", Tags: []string{"metropol", "dağ"}, Coordinate: Coordinate{40.1885, 29.0610}},
	{Key: "kocaeli", Name: "Kocaeli", Tags: []string{"sanayi", "kıyı"}, Coordinate: Coordinate{40.7654, 29.9408}},
	{Key: "erzurum", Name: "Erzurum", Tags: []string{"dağ", "kayak"}, Coordinate: Coordinate{39.9043, 41.2679}},
	{Key: "kars", Name: "Kars", Tags: []string{"dağ", "kayak"}, Coordinate: Coordinate{40.6013, 43.0975}},
	{Key: "bolu", Name: "Bolu", Tags: []string{"dağ", "kayak"}, Coordinate: Coordinate{40.7350, 31.6061}},
	{Key: "kayseri", Name: "Kayseri", Tags: []string{"dağ", "kayak"}, Coordinate: Coordinate{38.7312, 35.4787}},
	{Key: "trabzon", Name: "Trabzon", Tags: []string{"kıyı", "karadeniz"}, Coordinate: Coordinate{41.0027, 39.7168}},
	{Key: "rize", Name: "Rize", Tags: []string{"kıyı", "karadeniz"}, Coordinate: Coordinate{41.0201, 40.5234}},
	{Key: "van", Name: "Van", Tags: []string{"göl"}, Coordinate: Coordinate{38.5012, 43.3730}},
}

// Directory is an immutable, key-indexed set of city profiles.
type Directory struct {
	byKey map[string]CityProfile
	order []string
}

// NewDirectory indexes profiles by their normalized key.
func NewDirectory(profiles []CityProfile) *Directory {
	d := &Directory{byKey: make(map[string]CityProfile, len(profiles))}
	for _, p := range profiles {
		p = p.clone()
		if p.CountryCode == "" {
			p.CountryCode = "TR"
		}
		key := NormalizeKey(p.Key)
		p.Key = key
		if _, dup := d.byKey[key]; !dup {
			d.order = append(d.order, key)
		}
		d.byKey[key] = p
	}
	return d
}

// DefaultDirectory returns the demo city list.
func DefaultDirectory() *Directory {
	return NewDirectory(defaultProfiles)
}

// Lookup finds a profile by key or display name.
func (d *Directory) Lookup(name string) (CityProfile, bool) {
	p, ok := d.byKey[NormalizeKey(name)]
	if !ok {
		return CityProfile{}, false
	}
	return p.clone(), true
}

// All returns profiles in registration order.
func (d *Directory) All() []CityProfile {
	out := make([]CityProfile, 0, len(d.order))
	for _, k := range d.order {
		out = append(out, d.byKey[k].clone())
	}
	return out
}

// Keys returns the sorted profile keys.
func (d *Directory) Keys() []string {
	keys := append([]string(nil), d.order...)
	sort.Strings(keys)
	return keys
}

func (p CityProfile) clone() CityProfile {
	p.Tags = append([]string(nil), p.Tags...)
	return p
}
