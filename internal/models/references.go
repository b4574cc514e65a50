package models

// ReferencesModel holds the lines and stops referenced by ids in an entry or list.
type ReferencesModel struct {
	Lines []Line `json:"lines"`
	Stops []Stop `json:"stops"`
}

// NewEmptyReferences creates a new empty References model with initialized empty slices
func NewEmptyReferences() ReferencesModel {
	return ReferencesModel{
		Lines: []Line{},
		Stops: []Stop{},
	}
}
