// Package metrics holds the domain counters of the document core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Resolution outcomes.
const (
	OutcomeFound   = "found"
	OutcomeCreated = "created"
	OutcomeRaced   = "raced"
	OutcomeFailed  = "failed"
)

// Domain counts version bumps and registry resolutions. A nil *Domain is a valid no-op.
type Domain struct {
	versionsBumped prometheus.Counter
	resolutions    *prometheus.CounterVec
}

// NewDomain registers the domain collectors on reg.
func NewDomain(reg prometheus.Registerer) (*Domain, error) {
	d := &Domain{
		versionsBumped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "documents_versions_bumped_total",
			Help: "Document updates that changed at least one field.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_resolutions_total",
			Help: "Name based category/type resolutions by outcome.",
		}, []string{"entity", "outcome"}),
	}
	for _, c := range []prometheus.Collector{d.versionsBumped, d.resolutions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Domain) VersionBumped() {
	if d == nil {
		return
	}
	d.versionsBumped.Inc()
}

func (d *Domain) Resolved(entity, outcome string) {
	if d == nil {
		return
	}
	d.resolutions.WithLabelValues(entity, outcome).Inc()
}
