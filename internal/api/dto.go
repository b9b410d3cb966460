package api

import (
	"github.com/starford/prophist/internal/historyservice"
	"github.com/starford/prophist/internal/render"
	"github.com/starford/prophist/internal/yamldoc"
)

// HistoryResponse is the property timeline returned by GET /history.
type HistoryResponse = render.ReportDTO

// RevisionsResponse wraps a revision listing.
type RevisionsResponse struct {
	Asset     string               `json:"asset" example:"Assets/Player.prefab" validate:"required"`
	Revisions []render.RevisionDTO `json:"revisions" validate:"required"`
}

// ObjectsResponse lists the anchored objects of an asset at one revision.
type ObjectsResponse struct {
	Asset    string               `json:"asset" example:"Assets/Player.prefab" validate:"required"`
	Revision render.RevisionDTO   `json:"revision" validate:"required"`
	Objects  []yamldoc.ObjectInfo `json:"objects" validate:"required"`
}

func newObjectsResponse(res *historyservice.ObjectsResult) ObjectsResponse {
	return ObjectsResponse{
		Asset:    res.Asset,
		Revision: render.NewRevision(res.Revision),
		Objects:  res.Objects,
	}
}
