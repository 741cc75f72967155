package submissions

import (
	"time"

	"github.com/mbolis/pathfinders/model"
)

type StepStats struct {
	Total          int    `json:"total"`
	Last24h        int    `json:"last24h"`
	Sessions       int    `json:"sessions"`
	LastSubmission string `json:"lastSubmission,omitempty"`
}

type Stats struct {
	Steps    map[model.StepType]StepStats `json:"steps"`
	Total    int                          `json:"total"`
	Last24h  int                          `json:"last24h"`
	Finished int                          `json:"finished"`
	// Share of sessions seen at one step that never reached the next.
	DropOffStep1To2 float64 `json:"dropOffStep1To2"`
	DropOffStep2To3 float64 `json:"dropOffStep2To3"`
}

var steps = []model.StepType{model.Step1, model.Step2, model.Step3}

// Stats aggregates the recorded submissions as of now.
func (s *Service) Stats(now time.Time) (Stats, error) {
	stats := Stats{Steps: map[model.StepType]StepStats{}}
	sessions := map[model.StepType]map[string]bool{}
	finished := map[string]bool{}
	since := now.Add(-24 * time.Hour)

	for _, step := range steps {
		all, err := s.log.List(step)
		if err != nil {
			return stats, err
		}

		st := StepStats{Total: len(all)}
		seen := map[string]bool{}
		for _, sub := range all {
			if at, ok := sub.ReceivedAt(); ok && at.After(since) {
				st.Last24h++
			}
			seen[sub.SessionID] = true
			if sub.Action == model.ActionFinish {
				finished[sub.SessionID] = true
			}
		}
		if len(all) > 0 {
			last := all[len(all)-1]
			st.LastSubmission = last.ServerTimestamp
			if st.LastSubmission == "" {
				st.LastSubmission = last.Timestamp
			}
		}
		st.Sessions = len(seen)
		sessions[step] = seen

		stats.Steps[step] = st
		stats.Total += st.Total
		stats.Last24h += st.Last24h
	}

	stats.Finished = len(finished)
	stats.DropOffStep1To2 = dropOff(sessions[model.Step1], sessions[model.Step2])
	stats.DropOffStep2To3 = dropOff(sessions[model.Step2], sessions[model.Step3])
	return stats, nil
}

func dropOff(from, to map[string]bool) float64 {
	if len(from) == 0 {
		return 0
	}
	lost := 0
	for id := range from {
		if !to[id] {
			lost++
		}
	}
	return float64(lost) / float64(len(from))
}
