package domain

// AccessLevel is a user's permission tier on one project.
type AccessLevel int

const (
	LevelViewer       AccessLevel = iota // read-only, may not mutate anything
	LevelCollaborator                    // may chat and edit
	LevelAdmin                           // full control over the project
)

func (l AccessLevel) String() string {
	switch l {
	case LevelViewer:
		return "viewer"
	case LevelCollaborator:
		return "collaborator"
	case LevelAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseAccessLevel converts a stored label to an AccessLevel.
// Unknown labels fall back to viewer, the minimum level.
func ParseAccessLevel(s string) AccessLevel {
	switch s {
	case "admin":
		return LevelAdmin
	case "collaborator":
		return LevelCollaborator
	default:
		return LevelViewer
	}
}

// Valid returns true if the level is a recognised value.
func (l AccessLevel) Valid() bool {
	return l >= LevelViewer && l <= LevelAdmin
}

// AtLeast reports whether the level grants everything min does.
func (l AccessLevel) AtLeast(min AccessLevel) bool {
	return l >= min
}

// Permission relates one user to one project. At most one record
// exists per (UserID, ProjectID) pair.
type Permission struct {
	UserID    UserID      `json:"u_id"`
	ProjectID ProjectID   `json:"p_id"`
	Level     AccessLevel `json:"access_level"`
}
