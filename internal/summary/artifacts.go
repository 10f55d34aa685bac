package summary

import (
	"github.com/sirupsen/logrus"

	"aptsurge/server/internal/metrics"
	"aptsurge/server/internal/ranking"
)

// artifactSet writes each apartment's price history at most once per run
type artifactSet struct {
	writer  HistoryWriter
	metrics *metrics.Pipeline
	logger  *logrus.Logger
	cutoff  string
	owners  map[string]ranking.CohortKey
}

func newArtifactSet(writer HistoryWriter, cutoff string, m *metrics.Pipeline, logger *logrus.Logger) *artifactSet {
	return &artifactSet{
		writer:  writer,
		cutoff:  cutoff,
		metrics: m,
		logger:  logger,
		owners:  make(map[string]ranking.CohortKey),
	}
}

func (s *artifactSet) Len() int {
	return len(s.owners)
}

// AddMatches writes the history of every match whose identifier is new; an
// identifier already owned by another cohort is reported as a collision.
func (s *artifactSet) AddMatches(matches []ranking.Match) {
	for _, m := range matches {
		s.add(m)
	}
}

func (s *artifactSet) add(m ranking.Match) {
	id := m.Entry.ID
	key := ranking.CohortKey{AptName: m.Entry.AptName, AreaM2: m.Entry.AreaM2}

	if owner, ok := s.owners[id]; ok {
		if owner != key {
			s.metrics.IDCollisions.Inc()
			s.logger.WithFields(logrus.Fields{
				"id":       id,
				"apt_name": m.Entry.AptName,
				"area_m2":  m.Entry.AreaM2,
			}).Warn("Apartment identifier collision")
		}
		return
	}
	s.owners[id] = key

	if s.writer == nil {
		return
	}
	history := ranking.BuildHistory(m.Txns, s.cutoff)
	if len(history) == 0 {
		return
	}
	if err := s.writer.WriteHistory(id, history); err != nil {
		s.logger.WithError(err).WithField("id", id).Error("Failed to write price history")
		return
	}
	s.metrics.HistoryWrites.Inc()
}
