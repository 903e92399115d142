package location

import (
	"fmt"

	"github.com/kosarica/network-optimizer/internal/costmodel"
	"github.com/kosarica/network-optimizer/internal/geo"
)

// candidate is one site set the planner scores.
type candidate struct {
	source     string
	sites      []Site
	clustering *ClusterResult
}

// candidates lists the site sets to compare for k sites. Without existing sites
// (or when they are excluded) only an all-new set is produced. The all-new set
// always comes first so it wins cost ties.
func (p *Planner) candidates(customers []Customer, existing []Site, k int) ([]candidate, error) {
	if !p.settings.IncludeExistingSites || len(existing) == 0 {
		c, err := p.newSites(customers, existing, k)
		if err != nil {
			return nil, err
		}
		return []candidate{c}, nil
	}

	switch p.settings.ExistingSitesMode {
	case ExistingAlways:
		c, err := p.blend(customers, existing, k)
		if err != nil {
			return nil, err
		}
		return []candidate{c}, nil
	case ExistingSubset:
		return []candidate{existingOnly(existing, k)}, nil
	default:
		c, err := p.newSites(customers, existing, k)
		if err != nil {
			return nil, err
		}
		return []candidate{c, existingOnly(existing, k)}, nil
	}
}

// newSites clusters customers into k groups and proposes a site at each center.
// A center within the match distance of an existing site is flagged as existing.
func (p *Planner) newSites(customers []Customer, existing []Site, k int) (candidate, error) {
	res, err := ClusterCustomers(customers, k, p.cluster)
	if err != nil {
		return candidate{}, err
	}
	return candidate{
		source:     "new",
		sites:      p.sitesFromClusters(res, existing, 0),
		clustering: res,
	}, nil
}

// blend keeps every existing site and clusters for the remaining k-len(existing)
// new sites.
func (p *Planner) blend(customers []Customer, existing []Site, k int) (candidate, error) {
	c := candidate{source: "blend", sites: append([]Site(nil), existing...)}
	if extra := k - len(existing); extra > 0 {
		res, err := ClusterCustomers(customers, extra, p.cluster)
		if err != nil {
			return candidate{}, err
		}
		c.sites = append(c.sites, p.sitesFromClusters(res, existing, len(existing))...)
		c.clustering = res
	}
	return c, nil
}

// existingOnly uses the first k existing sites.
func existingOnly(existing []Site, k int) candidate {
	n := min(k, len(existing))
	return candidate{source: "existing", sites: append([]Site(nil), existing[:n]...)}
}

func (p *Planner) sitesFromClusters(res *ClusterResult, existing []Site, offset int) []Site {
	locs := make([]geo.Coordinate, len(existing))
	for i, s := range existing {
		locs[i] = s.Location
	}
	sites := make([]Site, len(res.Clusters))
	for i, cl := range res.Clusters {
		sites[i] = Site{
			ID:       fmt.Sprintf("DC-%d", offset+i+1),
			Location: cl.Center,
			Existing: costmodel.MatchesExisting(cl.Center, locs, p.settings.SiteMatchKm),
		}
	}
	return sites
}

func markExisting(existing []Site) []Site {
	out := make([]Site, len(existing))
	for i, s := range existing {
		s.Existing = true
		if s.ID == "" {
			s.ID = fmt.Sprintf("EXISTING-%d", i+1)
		}
		out[i] = s
	}
	return out
}
