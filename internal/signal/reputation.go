package signal

import (
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// ReputationProvider scores the origin network of an address. Scores are in
// [0,1]: 0 residential/clean, 1 known hosting/datacenter, 0.5 unknown.
type ReputationProvider interface {
	Score(ip string) float64
}

const neutralReputation = 0.5

// NeutralReputation answers 0.5 for every address. Used when no intelligence
// source is configured.
type NeutralReputation struct{}

func (NeutralReputation) Score(string) float64 { return neutralReputation }

// Datacenter/cloud ranges. Coarse on purpose: a hit only raises the
// reputation feature, it never classifies on its own.
var datacenterCIDRs = []string{
	// AWS
	"3.0.0.0/8", "13.0.0.0/8", "18.0.0.0/8", "34.0.0.0/8", "35.0.0.0/8",
	"52.0.0.0/8", "54.0.0.0/8",
	// Google Cloud
	"34.64.0.0/10", "35.184.0.0/13", "104.154.0.0/15", "104.196.0.0/14",
	// Azure
	"13.64.0.0/11", "20.0.0.0/8", "40.64.0.0/10", "52.224.0.0/11",
	// DigitalOcean
	"64.225.0.0/16", "68.183.0.0/16", "104.131.0.0/16", "134.209.0.0/16",
	"138.68.0.0/16", "139.59.0.0/16", "142.93.0.0/16", "157.245.0.0/16",
	"159.65.0.0/16", "159.89.0.0/16", "161.35.0.0/16", "164.90.0.0/16",
	"165.22.0.0/16", "165.227.0.0/16", "167.71.0.0/16", "167.99.0.0/16",
	// Linode
	"45.33.0.0/16", "45.56.0.0/16", "45.79.0.0/16", "139.162.0.0/16",
	"172.104.0.0/15", "173.230.128.0/17", "173.255.192.0/18",
	// Vultr
	"45.32.0.0/16", "45.63.0.0/16", "45.76.0.0/16", "45.77.0.0/16",
	"108.61.0.0/16", "140.82.0.0/16", "144.202.0.0/16", "149.28.0.0/16",
	// Hetzner
	"5.9.0.0/16", "46.4.0.0/15", "88.99.0.0/16", "95.216.0.0/14",
	"116.202.0.0/15", "135.181.0.0/16", "136.243.0.0/16", "138.201.0.0/16",
	"144.76.0.0/16", "148.251.0.0/16", "157.90.0.0/16", "159.69.0.0/16",
	"168.119.0.0/16", "176.9.0.0/16", "178.63.0.0/16", "188.40.0.0/16",
	// OVH
	"51.38.0.0/16", "51.68.0.0/16", "51.75.0.0/16", "51.77.0.0/16",
	"51.83.0.0/16", "51.89.0.0/16", "51.91.0.0/16", "54.36.0.0/16",
	"54.37.0.0/16", "54.38.0.0/16", "91.134.0.0/16", "135.125.0.0/16",
	"137.74.0.0/16", "139.99.0.0/16", "141.94.0.0/16", "144.217.0.0/16",
	"145.239.0.0/16", "147.135.0.0/16", "149.56.0.0/16", "158.69.0.0/16",
	"164.132.0.0/16", "167.114.0.0/16", "176.31.0.0/16", "178.32.0.0/15",
	"188.165.0.0/16", "192.99.0.0/16", "193.70.0.0/16",
}

// CIDRReputation matches addresses against a static datacenter range list.
type CIDRReputation struct {
	nets []*net.IPNet
}

func NewCIDRReputation() *CIDRReputation {
	r := &CIDRReputation{}
	for _, cidr := range datacenterCIDRs {
		if _, ipNet, err := net.ParseCIDR(cidr); err == nil {
			r.nets = append(r.nets, ipNet)
		}
	}
	return r
}

func (r *CIDRReputation) Score(ip string) float64 {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return neutralReputation
	}
	if parsed.IsLoopback() || parsed.IsPrivate() {
		return 0
	}
	for _, n := range r.nets {
		if n.Contains(parsed) {
			return 1
		}
	}
	return 0.2 // public, not in any known hosting range
}

// Hosting/cloud organizations as they appear in MaxMind ASN records.
var hostingOrgKeywords = []string{
	"amazon", "google cloud", "microsoft azure", "digitalocean",
	"linode", "vultr", "hetzner", "ovh", "alibaba cloud", "tencent cloud",
	"oracle cloud", "contabo", "scaleway", "leaseweb", "colocation",
	"hosting", "datacenter", "data center", "server",
}

// GeoIPReputation resolves addresses against a MaxMind ASN database and
// flags hosting-provider origins.
type GeoIPReputation struct {
	reader   *geoip2.Reader
	fallback *CIDRReputation
}

// NewGeoIPReputation opens the ASN database at path. Lookups that miss the
// database fall back to the static CIDR list.
func NewGeoIPReputation(path string) (*GeoIPReputation, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIPReputation{reader: reader, fallback: NewCIDRReputation()}, nil
}

func (r *GeoIPReputation) Score(ip string) float64 {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return neutralReputation
	}
	record, err := r.reader.ASN(parsed)
	if err != nil || record.AutonomousSystemOrganization == "" {
		return r.fallback.Score(ip)
	}
	org := strings.ToLower(record.AutonomousSystemOrganization)
	for _, keyword := range hostingOrgKeywords {
		if strings.Contains(org, keyword) {
			return 1
		}
	}
	return 0.1
}

func (r *GeoIPReputation) Close() error { return r.reader.Close() }
