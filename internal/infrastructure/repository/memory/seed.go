package memory

// Nation is a country ready to be registered with its manager.
type Nation struct {
	Country string
	Manager string
}

// SeedNations returns eight nations, enough to fill one bracket.
func SeedNations() []Nation {
	return []Nation{
		{Country: "Indonesia", Manager: "Shin Tae-yong"},
		{Country: "Japan", Manager: "Hajime Moriyasu"},
		{Country: "Brazil", Manager: "Dorival Junior"},
		{Country: "France", Manager: "Didier Deschamps"},
		{Country: "Argentina", Manager: "Lionel Scaloni"},
		{Country: "Morocco", Manager: "Walid Regragui"},
		{Country: "Germany", Manager: "Julian Nagelsmann"},
		{Country: "Spain", Manager: "Luis de la Fuente"},
	}
}
