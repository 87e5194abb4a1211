package audit

import "time"

// Action identifies the kind of event recorded in the bitácora. The values
// are the persisted enumeration and must not be renamed.
type Action string

const (
	ActionCreate     Action = "CREAR"
	ActionEdit       Action = "EDITAR"
	ActionDelete     Action = "ELIMINAR"
	ActionLogin      Action = "LOGIN"
	ActionLogout     Action = "LOGOUT"
	ActionActivate   Action = "ACTIVAR"
	ActionDeactivate Action = "DESACTIVAR"
	ActionOther      Action = "OTRO"
)

// Valid reports whether the action belongs to the persisted enumeration.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionEdit, ActionDelete, ActionLogin, ActionLogout,
		ActionActivate, ActionDeactivate, ActionOther:
		return true
	}
	return false
}

// Entry is one immutable bitácora record. UserID is a weak back-reference:
// it survives principal deletion as NULL rather than cascading.
type Entry struct {
	ID          int64     `json:"id"`
	UserID      *int64    `json:"user_id,omitempty"`
	Module      string    `json:"module"`
	Action      Action    `json:"action"`
	Description string    `json:"description"`
	IP          *string   `json:"ip,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TimelineFilters narrows a timeline query. Zero values mean no filter.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	UserID   *int64
	Module   string
	Action   Action
	Page     int
	PageSize int
}

// PagingInfo describes the window returned by Timeline.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}
