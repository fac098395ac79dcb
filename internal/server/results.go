package server

import "github.com/igusev/qlaunch/internal/model"

// ResultView is the wire form of a result: the variant tag, the URI or
// payload a client launches, and the variant's own fields
type ResultView struct {
	Type   model.Kind         `json:"type"`
	Target string             `json:"target"`
	Data   model.SearchResult `json:"data"`
}

// Views converts results to their wire form
func Views(results []model.SearchResult) []ResultView {
	views := make([]ResultView, 0, len(results))
	for _, r := range results {
		views = append(views, ResultView{
			Type:   r.Kind(),
			Target: model.LaunchTarget(r),
			Data:   r,
		})
	}
	return views
}
