package config

// Mode selects which public resolver answers lookups.
type Mode string

// Resolver modes.
const (
	ModeStandard Mode = "standard"
	ModeSafe     Mode = "safe"
	ModeClean    Mode = "clean"
)

var modeResolvers = map[Mode]string{
	ModeStandard: "1.1.1.1",
	ModeSafe:     "1.1.1.2",
	ModeClean:    "1.1.1.3",
}

// Resolver returns the resolver address of m, standard for unknown modes.
func (m Mode) Resolver() string {
	if ip, ok := modeResolvers[m]; ok {
		return ip
	}
	return modeResolvers[ModeStandard]
}

// Endpoint returns the DNS-over-HTTPS JSON endpoint of m.
func (m Mode) Endpoint() string {
	return "https://" + m.Resolver() + "/dns-query"
}
