package agenda

import "github.com/dealerops/agenda-api/internal/domain/model"

// LocationOf classifies where a job's work happens from its parts' off-site flags.
// A job without parts is in-house.
func LocationOf(job *model.Job) model.Location {
	offSite := 0
	for i := range job.Parts {
		if job.Parts[i].IsOffSite {
			offSite++
		}
	}
	switch {
	case offSite == 0:
		return model.LocationInHouse
	case offSite == len(job.Parts):
		return model.LocationOffSite
	default:
		return model.LocationMixed
	}
}
