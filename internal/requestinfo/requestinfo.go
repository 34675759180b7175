// internal/requestinfo/requestinfo.go
//
// Per-request metadata for access logs.
//
// Context
// -------
// Enrich parses the client's user agent and, when a GeoLite2 database is
// configured, resolves the client IP to a country and city.  The result
// is an inert struct stored in the request context, so handlers and the
// access-log middleware can read it without re-parsing headers.  Geo
// lookup is optional: with no database on disk the Geo fields simply
// stay empty.
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

// UA carries the parsed user-agent attributes.
type UA struct {
	Browser     string
	Version     string
	OS          string
	Device      string // "Desktop", "Mobile", "Tablet", or "Other"
	IsBot       bool
	PrimaryLang string // first tag from Accept-Language
}

// Geo holds best-effort IP geolocation hints.
type Geo struct {
	IP         net.IP
	CountryISO string
	City       string
}

// Info is attached to the request context by Enrich.
type Info struct {
	UA        UA
	Geo       Geo
	RemoteIP  string
	Timestamp time.Time
}

type ctxKey struct{}

// FromContext returns the Info stored by Enrich, or nil if the
// middleware has not run.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

// Enricher builds the Enrich middleware.  geoDBPath may be empty.
type Enricher struct {
	geo *geoip2.Reader
}

// NewEnricher opens the GeoLite2 database when a path is configured.  A
// missing or unreadable database downgrades to UA-only enrichment.
func NewEnricher(geoDBPath string) *Enricher {
	e := &Enricher{}
	if geoDBPath == "" {
		return e
	}
	reader, err := geoip2.Open(geoDBPath)
	if err != nil {
		zap.S().Warnw("geo database unavailable, continuing without geolocation",
			"path", geoDBPath, "error", err)
		return e
	}
	e.geo = reader
	return e
}

// Close releases the GeoLite2 handle.
func (e *Enricher) Close() {
	if e.geo != nil {
		_ = e.geo.Close()
	}
}

// Enrich stores request metadata in the context for downstream handlers.
func (e *Enricher) Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip := clientIP(req)
		info := &Info{
			UA:        parseUA(req.UserAgent(), req.Header.Get("Accept-Language")),
			Geo:       e.lookup(ip),
			RemoteIP:  ip.String(),
			Timestamp: time.Now().UTC(),
		}
		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), ctxKey{}, info)))
	})
}

func (e *Enricher) lookup(ip net.IP) Geo {
	if e.geo == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := e.geo.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{IP: ip, CountryISO: rec.Country.IsoCode, City: rec.City.Names["en"]}
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// socket peer.
func clientIP(req *http.Request) net.IP {
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	return net.ParseIP(host)
}

func parseUA(raw, acceptLang string) UA {
	parsed := surfer.Parse(raw)

	device := "Other"
	switch parsed.DeviceType {
	case surfer.DeviceComputer:
		device = "Desktop"
	case surfer.DeviceTablet:
		device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		device = "Mobile"
	}

	return UA{
		Browser:     strings.TrimPrefix(parsed.Browser.Name.String(), "Browser"),
		Version:     versionToString(parsed.Browser.Version),
		OS:          strings.TrimPrefix(parsed.OS.Name.String(), "OS"),
		Device:      device,
		IsBot:       parsed.IsBot(),
		PrimaryLang: primaryLang(acceptLang),
	}
}

// versionToString renders a dotted version while trimming trailing
// zeros, e.g. 17.0.0 becomes "17" and 17.3.0 becomes "17.3".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor)) + "." + strconv.Itoa(int(v.Patch))
	}
	if v.Minor != 0 {
		return strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor))
	}
	return strconv.Itoa(int(v.Major))
}

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag, _, _ := strings.Cut(al, ",")
	tag = strings.TrimSpace(tag)
	if i := strings.Index(tag, ";"); i != -1 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
