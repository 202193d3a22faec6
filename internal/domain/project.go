package domain

import "strconv"

// ProjectID is the canonical string form of a project identifier.
// Rooms and permission lookups are always keyed by this form, so a
// numeric id arriving from one transport and a string id from another
// land in the same room.
type ProjectID string

func ProjectIDFromInt(id int64) ProjectID {
	return ProjectID(strconv.FormatInt(id, 10))
}

// Int converts the id back to its numeric form for storage lookups.
func (p ProjectID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(p), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

type Project struct {
	ID   ProjectID `json:"id"`
	Name string    `json:"name"`
}
